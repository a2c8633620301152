package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/civicconnect/civic-services/internal/config"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service delivers SOS alerts and import reports to officials over Teams
// and email
type Service struct {
	config *config.Config
	client *resty.Client
	send   func(m *gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// email is a rendered message ready for delivery
type email struct {
	subject string
	text    string
	html    string
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	s.send = s.dialAndSend
	return s
}

// SendAlert notifies officials of an emergency request
func (s *Service) SendAlert(alert *models.Alert) error {
	return s.deliver("alert", s.buildAlertCard(alert), func() (*email, error) {
		return s.buildAlertEmail(alert)
	})
}

// SendImportReport sends the summary of a CSV reload
func (s *Service) SendImportReport(report *models.ImportReport) error {
	return s.deliver("import report", s.buildReportCard(report), func() (*email, error) {
		return s.buildReportEmail(report)
	})
}

func (s *Service) deliver(kind string, card *TeamsMessage, buildEmail func() (*email, error)) error {
	if s.config.TeamsWebhookURL == "" && s.config.NotificationEmail == "" {
		logrus.Infof("No notification channel configured; %s not sent: %s", kind, card.Title)
		return nil
	}

	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(card); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Sent %s to Teams", kind)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(buildEmail); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Sent %s via email", kind)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func (s *Service) sendToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func (s *Service) sendEmail(build func() (*email, error)) error {
	e, err := build()
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", e.subject)
	m.SetBody("text/plain", e.text)
	m.AddAlternative("text/html", e.html)

	return s.send(m)
}

func (s *Service) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// --- alerts -----------------------------------------------------------------

func alertColor(alertType string) string {
	switch alertType {
	case "critical":
		return "d13438"
	case "urgent":
		return "ff8c00"
	default:
		return "0078d4"
	}
}

func (s *Service) buildAlertCard(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: alertColor(alert.Type),
		Title:      alert.Title,
		Text:       alert.Message,
	}

	if e := alert.Emergency; e != nil {
		facts := []TeamsFact{
			{Name: "Type", Value: string(e.EmergencyType)},
			{Name: "Location", Value: fmt.Sprintf("%.6f, %.6f", e.Latitude, e.Longitude)},
			{Name: "Map", Value: mapsLink(e.Latitude, e.Longitude)},
			{Name: "Reported", Value: alert.CreatedAt.Format("2006-01-02 15:04:05 UTC")},
		}
		if e.NearestFacility != nil {
			facts = append(facts, TeamsFact{
				Name:  "Nearest Facility",
				Value: fmt.Sprintf("%s (%s)", e.NearestFacility.Name, e.NearestFacility.Address),
			})
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Emergency Details",
			ActivityText:  e.Description,
			Facts:         facts,
			Markdown:      true,
		})
	}
	return message
}

const alertEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Alert.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #{{.Color}}; color: white; padding: 20px; border-radius: 5px; }
        .details { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Alert.Title}}</h1>
        <p>{{.Alert.CreatedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>
    <p>{{.Alert.Message}}</p>
    {{with .Alert.Emergency}}
    <div class="details">
        <p><strong>Type:</strong> {{.EmergencyType}}</p>
        {{if .Description}}<p><strong>Details:</strong> {{.Description}}</p>{{end}}
        <p><strong>Location:</strong> <a href="{{$.MapLink}}" target="_blank">{{printf "%.6f, %.6f" .Latitude .Longitude}}</a></p>
        {{with .NearestFacility}}<p><strong>Nearest Facility:</strong> {{.Name}}, {{.Address}}</p>{{end}}
    </div>
    {{end}}
    <hr>
    <p><small>This alert was generated automatically by the Civic Services portal.</small></p>
</body>
</html>
`

func (s *Service) buildAlertEmail(alert *models.Alert) (*email, error) {
	data := struct {
		Alert   *models.Alert
		Color   string
		MapLink string
	}{Alert: alert, Color: alertColor(alert.Type)}
	if alert.Emergency != nil {
		data.MapLink = mapsLink(alert.Emergency.Latitude, alert.Emergency.Longitude)
	}

	html, err := render("alert", alertEmailTemplate, data)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("%s\n", alert.Title))
	text.WriteString(fmt.Sprintf("Reported: %s\n\n", alert.CreatedAt.Format("2006-01-02 15:04:05 UTC")))
	text.WriteString(alert.Message + "\n")
	if e := alert.Emergency; e != nil {
		text.WriteString(fmt.Sprintf("\nType: %s\n", e.EmergencyType))
		if e.Description != "" {
			text.WriteString(fmt.Sprintf("Details: %s\n", e.Description))
		}
		text.WriteString(fmt.Sprintf("Location: %s\n", mapsLink(e.Latitude, e.Longitude)))
		if e.NearestFacility != nil {
			text.WriteString(fmt.Sprintf("Nearest Facility: %s, %s\n", e.NearestFacility.Name, e.NearestFacility.Address))
		}
	}
	text.WriteString("\n---\nThis alert was generated automatically by the Civic Services portal.\n")

	return &email{
		subject: fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Type), alert.Title),
		text:    text.String(),
		html:    html,
	}, nil
}

// --- import reports ---------------------------------------------------------

func (s *Service) buildReportCard(report *models.ImportReport) *TeamsMessage {
	status, color := "succeeded", "107c10"
	if report.Failed() {
		status, color = "completed with errors", "d13438"
	}

	facts := []TeamsFact{
		{Name: "Trigger", Value: report.Trigger},
		{Name: "Duration", Value: report.Duration},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	for _, res := range report.Results {
		facts = append(facts, TeamsFact{Name: res.Dataset, Value: datasetOutcome(res)})
	}

	return &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: color,
		Title:      "Infrastructure Data Reload - " + report.GeneratedAt.Format("Jan 2, 2006"),
		Text:       fmt.Sprintf("CSV reload %s", status),
		Sections: []TeamsSection{{
			ActivityTitle: "Datasets",
			Facts:         facts,
			Markdown:      true,
		}},
	}
}

const reportEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Infrastructure Data Reload</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        table { border-collapse: collapse; margin: 20px 0; }
        td, th { border: 1px solid #ddd; padding: 8px; text-align: left; }
        .failed { color: #d13438; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Infrastructure Data Reload</h1>
        <p>{{.Trigger}} run on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}} ({{.Duration}})</p>
    </div>
    <table>
        <tr><th>Dataset</th><th>Rows</th><th>Status</th></tr>
        {{range .Results}}
        <tr>
            <td>{{.Dataset}}</td>
            <td>{{.Rows}}</td>
            {{if .Error}}<td class="failed">{{.Error}}</td>{{else}}<td>OK</td>{{end}}
        </tr>
        {{end}}
    </table>
    <hr>
    <p><small>This report was generated automatically by the Civic Services portal.</small></p>
</body>
</html>
`

func (s *Service) buildReportEmail(report *models.ImportReport) (*email, error) {
	html, err := render("report", reportEmailTemplate, report)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	text.WriteString("Infrastructure Data Reload\n")
	text.WriteString(fmt.Sprintf("Generated: %s (%s, %s)\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"),
		report.Trigger, report.Duration))
	text.WriteString("DATASETS\n")
	text.WriteString("========\n")
	for _, res := range report.Results {
		text.WriteString(fmt.Sprintf("%s: %s\n", res.Dataset, datasetOutcome(res)))
	}
	text.WriteString("\n---\nThis report was generated automatically by the Civic Services portal.\n")

	subject := "Infrastructure data reload succeeded"
	if report.Failed() {
		subject = "Infrastructure data reload failed"
	}
	return &email{subject: subject, text: text.String(), html: html}, nil
}

func datasetOutcome(res models.DatasetResult) string {
	if res.Error != "" {
		return "failed: " + res.Error
	}
	return fmt.Sprintf("%d rows", res.Rows)
}

func render(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mapsLink(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", lat, lng)
}
