package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/notifications"
	"github.com/civicconnect/civic-services/internal/storage"
	"github.com/sirupsen/logrus"
)

// Triggers recorded on import reports
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerCLI      = "cli"
)

// SnapshotPrefix is the storage prefix of stored import reports
const SnapshotPrefix = "imports/"

// Service runs every CSV loader and reports the outcome to officials
type Service struct {
	loader              *Loader
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	mu                  sync.Mutex
	now                 func() time.Time
}

// NewService creates a new import service
func NewService(loader *Loader, storage storage.StorageInterface, notificationService notifications.NotificationInterface) *Service {
	return &Service{
		loader:              loader,
		storage:             storage,
		notificationService: notificationService,
		now:                 time.Now,
	}
}

// RunAll loads every dataset concurrently. A dataset that fails leaves its
// table untouched and is recorded in the report; the returned error only
// covers storing or sending the report.
func (s *Service) RunAll(ctx context.Context, trigger string) (*models.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	logrus.Infof("Starting CSV reload (%s)", trigger)

	var wg sync.WaitGroup
	resultsChan := make(chan models.DatasetResult, len(Datasets))

	for _, dataset := range Datasets {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			rows, err := s.loader.Load(ctx, name)
			if err != nil {
				logrus.Errorf("Error loading %s: %v", name, err)
				resultsChan <- models.DatasetResult{Dataset: name, Error: err.Error()}
				return
			}
			resultsChan <- models.DatasetResult{Dataset: name, Rows: rows}
		}(dataset)
	}

	// Close channel when all goroutines complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	byName := make(map[string]models.DatasetResult, len(Datasets))
	for result := range resultsChan {
		byName[result.Dataset] = result
	}

	report := &models.ImportReport{
		GeneratedAt: start,
		Trigger:     trigger,
		Duration:    s.now().Sub(start).String(),
	}
	for _, dataset := range Datasets {
		report.Results = append(report.Results, byName[dataset])
	}

	var errs []error
	if err := s.storeReport(ctx, report); err != nil {
		logrus.Errorf("Failed to store import report: %v", err)
		errs = append(errs, err)
	}
	if err := s.notificationService.SendImportReport(report); err != nil {
		logrus.Errorf("Failed to send import report: %v", err)
		errs = append(errs, fmt.Errorf("failed to send import report: %w", err))
	}

	logrus.Infof("CSV reload completed in %s (failed: %t)", report.Duration, report.Failed())
	return report, errors.Join(errs...)
}

func (s *Service) storeReport(ctx context.Context, report *models.ImportReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal import report: %w", err)
	}

	filename := fmt.Sprintf("%simport-%s.json", SnapshotPrefix, report.GeneratedAt.Format("2006-01-02-15-04-05"))
	if err := s.storage.Store(ctx, filename, data); err != nil {
		return fmt.Errorf("failed to store import report: %w", err)
	}

	logrus.Infof("Stored import report as %s", filename)
	return nil
}
