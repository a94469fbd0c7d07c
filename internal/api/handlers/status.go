package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/controllers"
	"github.com/qbitremote/qbitremote/internal/models"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db           *models.Database
	downloadCtrl *controllers.DownloadController
	logger       *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, downloadCtrl *controllers.DownloadController, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:           db,
		downloadCtrl: downloadCtrl,
		logger:       logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TrackedDownloading int    `json:"tracked_downloading"`
	TrackedCompleted   int    `json:"tracked_completed"`
	ActiveTorrents     int    `json:"active_torrents"`
	TotalTorrents      int    `json:"total_torrents"`
	DownloadSpeed      int64  `json:"download_speed"`
	UploadSpeed        int64  `json:"upload_speed"`
	Connection         string `json:"connection_status"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var response StatusResponse

	downloading, err := h.db.GetDownloadsByStatus(models.DownloadStatusDownloading)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get download records")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	response.TrackedDownloading = len(downloading)

	completed, err := h.db.GetDownloadsByStatus(models.DownloadStatusCompleted)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get download records")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	response.TrackedCompleted = len(completed)

	// qBittorrent being down degrades the response instead of failing it
	if torrents, err := h.downloadCtrl.ActiveTorrents(); err == nil {
		response.TotalTorrents = len(torrents)
		for _, t := range torrents {
			if !t.IsComplete() {
				response.ActiveTorrents++
			}
		}
	} else {
		h.logger.WithError(err).Warn("Failed to list torrents for status")
	}

	if stats, err := h.downloadCtrl.TransferInfo(); err == nil {
		response.DownloadSpeed = stats.DownloadSpeed
		response.UploadSpeed = stats.UploadSpeed
		response.Connection = stats.Connection
	} else {
		h.logger.WithError(err).Warn("Failed to get transfer info for status")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
