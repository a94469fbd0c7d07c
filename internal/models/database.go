package models

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Download operations

// AddDownload creates a new download record, returning its ID
func (db *Database) AddDownload(record *DownloadRecord) (uint64, error) {
	record.Status = DownloadStatusDownloading
	record.CreatedAt = time.Now()
	if err := db.store.Insert(bolthold.NextSequence(), record); err != nil {
		return 0, err
	}
	return record.ID, nil
}

// GetDownloadByID retrieves a download record by ID
func (db *Database) GetDownloadByID(id uint64) (*DownloadRecord, error) {
	var record DownloadRecord
	if err := db.store.Get(id, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetUserDownloads retrieves all downloads for a user, newest first
func (db *Database) GetUserDownloads(userID int64) ([]*DownloadRecord, error) {
	var records []*DownloadRecord
	err := db.store.Find(&records,
		bolthold.Where("UserID").Eq(userID).SortBy("CreatedAt").Reverse())
	return records, err
}

// GetDownloadsByStatus retrieves all downloads with a given status
func (db *Database) GetDownloadsByStatus(status DownloadStatus) ([]*DownloadRecord, error) {
	var records []*DownloadRecord
	err := db.store.Find(&records, bolthold.Where("Status").Eq(status))
	return records, err
}

// MarkDownloadCompleted sets a download's status to completed with a timestamp
func (db *Database) MarkDownloadCompleted(id uint64) error {
	record, err := db.GetDownloadByID(id)
	if err != nil {
		return err
	}
	now := time.Now()
	record.Status = DownloadStatusCompleted
	record.CompletedAt = &now
	return db.store.Update(record.ID, record)
}

// SetDownloadHash stores a torrent hash resolved after the record was created
func (db *Database) SetDownloadHash(id uint64, hash string) error {
	record, err := db.GetDownloadByID(id)
	if err != nil {
		return err
	}
	record.Hash = hash
	return db.store.Update(record.ID, record)
}

// PurgeDownloadsBefore deletes all download records created before the
// cutoff and returns how many were removed
func (db *Database) PurgeDownloadsBefore(cutoff time.Time) (int, error) {
	var records []*DownloadRecord
	if err := db.store.Find(&records, bolthold.Where("CreatedAt").Lt(cutoff)); err != nil {
		return 0, err
	}

	deleted := 0
	for _, record := range records {
		if err := db.store.Delete(record.ID, &DownloadRecord{}); err != nil {
			return deleted, err
		}
		deleted++
	}

	return deleted, nil
}

// Session operations

// SaveSession creates or replaces a user's session
func (db *Database) SaveSession(session *UserSession) error {
	session.LastActivity = time.Now()
	return db.store.Upsert(session.UserID, session)
}

// GetSession retrieves a user's session, or nil when none exists
func (db *Database) GetSession(userID int64) (*UserSession, error) {
	var session UserSession
	err := db.store.Get(userID, &session)
	if err == bolthold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
