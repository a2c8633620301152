package notifications

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/civicconnect/civic-services/internal/config"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func sampleAlert() *models.Alert {
	return &models.Alert{
		ID:      "a-1",
		Type:    "critical",
		Title:   "SOS: MEDICAL emergency",
		Message: "A citizen requested emergency assistance.",
		Emergency: &models.EmergencyRequest{
			EmergencyType:   models.EmergencyMedical,
			Description:     "Fall at Dadar station",
			Latitude:        19.0178,
			Longitude:       72.8478,
			NearestFacility: &models.Facility{Name: "KEM Hospital", Address: "Parel"},
		},
		CreatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func sampleReport() *models.ImportReport {
	return &models.ImportReport{
		GeneratedAt: time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC),
		Trigger:     "schedule",
		Duration:    "1.2s",
		Results: []models.DatasetResult{
			{Dataset: "projects", Rows: 40},
			{Dataset: "bottlenecks", Error: "CSV file not found"},
		},
	}
}

func TestService_NoChannelsConfigured(t *testing.T) {
	service := NewService(&config.Config{})
	service.send = func(*gomail.Message) error {
		t.Fatal("email must not be sent")
		return nil
	}

	assert.NoError(t, service.SendAlert(sampleAlert()))
	assert.NoError(t, service.SendImportReport(sampleReport()))
}

func TestService_SendAlertToTeams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(&config.Config{TeamsWebhookURL: server.URL})
	require.NoError(t, service.SendAlert(sampleAlert()))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "d13438", received.ThemeColor)
	assert.Equal(t, "SOS: MEDICAL emergency", received.Title)
	require.Len(t, received.Sections, 1)

	facts := map[string]string{}
	for _, f := range received.Sections[0].Facts {
		facts[f.Name] = f.Value
	}
	assert.Equal(t, "MEDICAL", facts["Type"])
	assert.Equal(t, "KEM Hospital (Parel)", facts["Nearest Facility"])
	assert.Contains(t, facts["Map"], "19.017800,72.847800")
}

func TestService_TeamsFailureIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad payload"))
	}))
	defer server.Close()

	service := NewService(&config.Config{TeamsWebhookURL: server.URL})
	err := service.SendImportReport(sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestService_SendImportReportByEmail(t *testing.T) {
	cfg := &config.Config{
		NotificationEmail: "officials@example.com",
		SMTPHost:          "smtp.example.com",
		SMTPUsername:      "bot@example.com",
		SMTPPassword:      "secret",
	}
	service := NewService(cfg)

	var sent *gomail.Message
	service.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	require.NoError(t, service.SendImportReport(sampleReport()))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"officials@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"Infrastructure data reload failed"}, sent.GetHeader("Subject"))

	var body strings.Builder
	_, err := sent.WriteTo(&body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "bottlenecks")
}

func TestService_EmailFailureIsReported(t *testing.T) {
	service := NewService(&config.Config{NotificationEmail: "o@example.com"})
	service.send = func(*gomail.Message) error { return errors.New("connection refused") }

	err := service.SendAlert(sampleAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email: connection refused")
}

func TestService_buildAlertEmail(t *testing.T) {
	service := NewService(&config.Config{})

	e, err := service.buildAlertEmail(sampleAlert())
	require.NoError(t, err)

	assert.Equal(t, "[CRITICAL] SOS: MEDICAL emergency", e.subject)
	assert.Contains(t, e.text, "Details: Fall at Dadar station")
	assert.Contains(t, e.text, "Nearest Facility: KEM Hospital, Parel")
	assert.Contains(t, e.html, "KEM Hospital")
	assert.Contains(t, e.html, "https://www.google.com/maps?q=19.017800,72.847800")
}

func TestService_buildReportCard(t *testing.T) {
	service := NewService(&config.Config{})

	tests := []struct {
		name      string
		report    *models.ImportReport
		wantText  string
		wantColor string
	}{
		{
			name:      "With failures",
			report:    sampleReport(),
			wantText:  "CSV reload completed with errors",
			wantColor: "d13438",
		},
		{
			name: "All succeeded",
			report: &models.ImportReport{
				GeneratedAt: time.Now(),
				Trigger:     "manual",
				Results:     []models.DatasetResult{{Dataset: "projects", Rows: 3}},
			},
			wantText:  "CSV reload succeeded",
			wantColor: "107c10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := service.buildReportCard(tt.report)
			assert.Equal(t, tt.wantText, card.Text)
			assert.Equal(t, tt.wantColor, card.ThemeColor)
		})
	}
}

func TestDatasetOutcome(t *testing.T) {
	assert.Equal(t, "12 rows", datasetOutcome(models.DatasetResult{Rows: 12}))
	assert.Equal(t, "failed: boom", datasetOutcome(models.DatasetResult{Error: "boom"}))
}
