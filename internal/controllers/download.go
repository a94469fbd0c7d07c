package controllers

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/config"
	"github.com/qbitremote/qbitremote/internal/models"
	"github.com/qbitremote/qbitremote/internal/services/prowlarr"
	"github.com/qbitremote/qbitremote/internal/services/qbittorrent"
	"github.com/qbitremote/qbitremote/internal/utils"
)

// DownloadController manages user-initiated downloads and their
// completion tracking
type DownloadController struct {
	db       *models.Database
	qbClient *qbittorrent.Client
	cfg      *config.Config
	logger   *logrus.Logger
}

// NewDownloadController creates a new download controller
func NewDownloadController(db *models.Database, qbClient *qbittorrent.Client, cfg *config.Config, logger *logrus.Logger) *DownloadController {
	return &DownloadController{
		db:       db,
		qbClient: qbClient,
		cfg:      cfg,
		logger:   logger,
	}
}

// StartDownload hands a search result to qBittorrent and records it for
// completion tracking
func (c *DownloadController) StartDownload(userID int64, result prowlarr.Result) (*models.DownloadRecord, error) {
	link := result.MagnetLink
	if link == "" {
		link = result.DownloadURL
	}
	if link == "" {
		return nil, fmt.Errorf("result %q has no magnet or download link", result.Name)
	}

	title := utils.ExtractTitle(result.Name)
	savePath := qbittorrent.DownloadPath(c.cfg, result.Category, title)

	category := "movies"
	if result.Category.IsTV() {
		category = "tv"
	}

	hash, err := c.qbClient.AddMagnet(link, savePath, category)
	if err != nil {
		return nil, fmt.Errorf("failed to add torrent: %w", err)
	}

	record := &models.DownloadRecord{
		UserID:     userID,
		Title:      result.Name,
		TorrentID:  result.ID,
		MagnetLink: link,
		SavePath:   savePath,
		Hash:       hash,
	}
	if _, err := c.db.AddDownload(record); err != nil {
		return nil, fmt.Errorf("failed to record download: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"download_id": record.ID,
		"user_id":     userID,
		"title":       result.Name,
		"save_path":   savePath,
	}).Info("Download started")

	return record, nil
}

// UserDownloads lists a user's recorded downloads, newest first
func (c *DownloadController) UserDownloads(userID int64) ([]*models.DownloadRecord, error) {
	return c.db.GetUserDownloads(userID)
}

// ActiveTorrents returns the live torrent list for status display
func (c *DownloadController) ActiveTorrents() ([]qbittorrent.Torrent, error) {
	return c.qbClient.ListTorrents()
}

// TransferInfo returns global transfer statistics for status display
func (c *DownloadController) TransferInfo() (*qbittorrent.TransferStats, error) {
	return c.qbClient.TransferInfo()
}

// CheckCompletions polls qBittorrent for records still marked as
// downloading and returns the ones that finished since the last check.
// Records are matched by info hash first; records without one fall back
// to normalized-name matching against the live torrent list.
func (c *DownloadController) CheckCompletions() ([]*models.DownloadRecord, error) {
	records, err := c.db.GetDownloadsByStatus(models.DownloadStatusDownloading)
	if err != nil {
		return nil, fmt.Errorf("failed to get active downloads: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var completed []*models.DownloadRecord

	for _, record := range records {
		torrent, err := c.lookupTorrent(record)
		if err != nil {
			c.logger.WithError(err).WithField("download_id", record.ID).Warn("Completion lookup failed")
			continue
		}
		if torrent == nil {
			continue
		}

		// Backfill the hash when the record was created without one
		if record.Hash == "" && torrent.Hash != "" {
			if err := c.db.SetDownloadHash(record.ID, torrent.Hash); err != nil {
				c.logger.WithError(err).WithField("download_id", record.ID).Warn("Failed to store torrent hash")
			}
		}

		if !torrent.IsComplete() {
			continue
		}

		if err := c.db.MarkDownloadCompleted(record.ID); err != nil {
			c.logger.WithError(err).WithField("download_id", record.ID).Error("Failed to mark download completed")
			continue
		}

		c.logger.WithFields(logrus.Fields{
			"download_id": record.ID,
			"title":       record.Title,
		}).Info("Download completed")

		completed = append(completed, record)
	}

	return completed, nil
}

// lookupTorrent resolves a record to its live torrent, or nil when
// qBittorrent no longer knows it
func (c *DownloadController) lookupTorrent(record *models.DownloadRecord) (*qbittorrent.Torrent, error) {
	if record.Hash != "" {
		return c.qbClient.FindTorrentByHash(record.Hash)
	}
	return c.qbClient.FindTorrentByName(record.Title)
}
