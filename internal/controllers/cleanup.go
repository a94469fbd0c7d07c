package controllers

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/models"
)

// CleanupController expires old download records. The records exist only
// to drive completion notifications, so they are kept for a short window
// and then dropped regardless of status.
type CleanupController struct {
	db        *models.Database
	retention time.Duration
	logger    *logrus.Logger
}

// NewCleanupController creates a new cleanup controller
func NewCleanupController(db *models.Database, retention time.Duration, logger *logrus.Logger) *CleanupController {
	return &CleanupController{
		db:        db,
		retention: retention,
		logger:    logger,
	}
}

// PurgeExpired deletes download records older than the retention window
// and returns how many were removed
func (c *CleanupController) PurgeExpired() (int, error) {
	cutoff := time.Now().Add(-c.retention)

	deleted, err := c.db.PurgeDownloadsBefore(cutoff)
	if err != nil {
		return deleted, err
	}

	if deleted > 0 {
		c.logger.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Expired download records purged")
	}

	return deleted, nil
}
