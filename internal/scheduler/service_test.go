package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/civicconnect/civic-services/internal/config"
	"github.com/civicconnect/civic-services/internal/ingest"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockImporter is a mock implementation of the import service
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) RunAll(ctx context.Context, trigger string) (*models.ImportReport, error) {
	args := m.Called(trigger)
	report, _ := args.Get(0).(*models.ImportReport)
	return report, args.Error(1)
}

func TestService_StartDisabled(t *testing.T) {
	importer := &MockImporter{}
	service := NewService(&config.Config{}, importer)

	require.NoError(t, service.Start())
	assert.Empty(t, service.cron.Entries())
	service.Stop()

	importer.AssertNotCalled(t, "RunAll", mock.Anything)
}

func TestService_StartInvalidSchedule(t *testing.T) {
	service := NewService(&config.Config{CSVReloadSchedule: "every night"}, &MockImporter{})
	assert.Error(t, service.Start())
}

func TestService_StartRegistersSchedule(t *testing.T) {
	service := NewService(&config.Config{CSVReloadSchedule: "0 2 * * *"}, &MockImporter{})
	require.NoError(t, service.Start())
	defer service.Stop()

	entries := service.cron.Entries()
	require.Len(t, entries, 1)

	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2024, 5, 2, 2, 0, 0, 0, time.Local), entries[0].Schedule.Next(from))
}

func TestService_RunUsesScheduleTrigger(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "Success"},
		{name: "Failure is logged", err: errors.New("notification errors")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			importer := &MockImporter{}
			importer.On("RunAll", ingest.TriggerSchedule).Return(&models.ImportReport{}, tt.err).Once()

			service := NewService(&config.Config{}, importer)
			service.run()

			importer.AssertExpectations(t)
		})
	}
}
