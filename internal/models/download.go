package models

import "time"

// DownloadRecord tracks a user-initiated torrent download
type DownloadRecord struct {
	ID     uint64 `boltholdKey:"ID"`
	UserID int64  `boltholdIndex:"UserID"`

	Title      string
	TorrentID  string // indexer item id (guid or link)
	MagnetLink string
	SavePath   string
	Hash       string // torrent hash, empty when it could not be derived

	Status DownloadStatus `boltholdIndex:"Status"`

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// UserSession holds a user's dialogue position between updates
type UserSession struct {
	UserID int64 `boltholdKey:"UserID"`

	State       DialogState
	SearchType  Category // category picked before entering a query
	SearchQuery string
	CurrentPage int
	FutureType  string // "movie" or "tv" while in awaiting_future_query

	LastActivity time.Time
}
