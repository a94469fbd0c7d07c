package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/controllers"
	"github.com/qbitremote/qbitremote/internal/models"
)

// Notifier delivers completion notices to the user who started a
// download. Satisfied by the Telegram bot.
type Notifier interface {
	NotifyDownloadComplete(record *models.DownloadRecord)
}

// Scheduler manages the background jobs: the completion poller and the
// record retention sweeper
type Scheduler struct {
	cron         *cron.Cron
	downloadCtrl *controllers.DownloadController
	cleanupCtrl  *controllers.CleanupController
	notifier     Notifier
	logger       *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	downloadCtrl *controllers.DownloadController,
	cleanupCtrl *controllers.CleanupController,
	notifier Notifier,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		downloadCtrl: downloadCtrl,
		cleanupCtrl:  cleanupCtrl,
		notifier:     notifier,
		logger:       logger,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Every minute: poll qBittorrent for finished downloads
	_, err := s.cron.AddFunc("@every 1m", func() {
		s.runCompletionCheck()
	})
	if err != nil {
		return fmt.Errorf("failed to add completion check job: %w", err)
	}

	// Daily: drop download records past the retention window
	_, err = s.cron.AddFunc("@every 24h", func() {
		s.runRetentionSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to add retention sweep job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Sweep leftovers from before the restart right away
	go s.runRetentionSweep()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runCompletionCheck polls for finished downloads and notifies their
// owners. Errors are logged and swallowed so the schedule keeps running.
func (s *Scheduler) runCompletionCheck() {
	completed, err := s.downloadCtrl.CheckCompletions()
	if err != nil {
		s.logger.WithError(err).Error("Completion check failed")
		return
	}

	for _, record := range completed {
		s.notifier.NotifyDownloadComplete(record)
	}
}

// runRetentionSweep executes the record retention job
func (s *Scheduler) runRetentionSweep() {
	s.logger.Debug("Running retention sweep")

	if _, err := s.cleanupCtrl.PurgeExpired(); err != nil {
		s.logger.WithError(err).Error("Retention sweep failed")
	}
}
