package scheduler

import (
	"context"
	"time"

	"github.com/civicconnect/civic-services/internal/config"
	"github.com/civicconnect/civic-services/internal/ingest"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// runTimeout bounds a single scheduled reload
const runTimeout = 10 * time.Minute

// Importer runs every CSV loader and reports the outcome
type Importer interface {
	RunAll(ctx context.Context, trigger string) (*models.ImportReport, error)
}

// Service handles scheduling of CSV reloads
type Service struct {
	config   *config.Config
	importer Importer
	cron     *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, importer Importer) *Service {
	return &Service{
		config:   cfg,
		importer: importer,
		cron:     cron.New(),
	}
}

// Start begins the scheduled reloads. An empty schedule disables them.
func (s *Service) Start() error {
	if s.config.CSVReloadSchedule == "" {
		logrus.Info("CSV_RELOAD_SCHEDULE not set, scheduled reloads disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.CSVReloadSchedule, s.run)
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q", s.config.CSVReloadSchedule)
	return nil
}

func (s *Service) run() {
	logrus.Info("Starting scheduled CSV reload")

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.importer.RunAll(ctx, ingest.TriggerSchedule); err != nil {
		logrus.Errorf("Scheduled CSV reload failed: %v", err)
	}
}

// Stop stops the scheduler and waits for a running reload to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
