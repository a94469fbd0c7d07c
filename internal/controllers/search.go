package controllers

import (
	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/models"
	"github.com/qbitremote/qbitremote/internal/services/prowlarr"
	"github.com/qbitremote/qbitremote/internal/services/qbittorrent"
)

// SearchController runs indexer searches with duplicate suppression
// against the live torrent list
type SearchController struct {
	prowlarrClient *prowlarr.Client
	qbClient       *qbittorrent.Client
	logger         *logrus.Logger
}

// NewSearchController creates a new search controller
func NewSearchController(prowlarrClient *prowlarr.Client, qbClient *qbittorrent.Client, logger *logrus.Logger) *SearchController {
	return &SearchController{
		prowlarrClient: prowlarrClient,
		qbClient:       qbClient,
		logger:         logger,
	}
}

// Search performs a paginated indexer search. Results duplicating a
// torrent already in qBittorrent are dropped; when the torrent list is
// unavailable the search proceeds without duplicate suppression.
func (c *SearchController) Search(query string, category models.Category, page int) (*prowlarr.SearchPage, error) {
	existingNames, err := c.qbClient.TorrentNames()
	if err != nil {
		c.logger.WithError(err).Warn("Failed to list torrents, searching without duplicate suppression")
		existingNames = nil
	}

	results, err := c.prowlarrClient.Search(query, category, page, existingNames)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"query":    query,
		"category": category,
		"page":     page,
		"total":    results.TotalResults,
	}).Info("Search completed")

	return results, nil
}
