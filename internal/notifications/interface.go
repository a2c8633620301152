package notifications

import "github.com/civicconnect/civic-services/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendImportReport(report *models.ImportReport) error
	SendAlert(alert *models.Alert) error
}

// Discard drops every notification, for command-line runs
type Discard struct{}

func (Discard) SendImportReport(report *models.ImportReport) error { return nil }
func (Discard) SendAlert(alert *models.Alert) error               { return nil }
