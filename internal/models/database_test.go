package models

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDownloadLifecycle(t *testing.T) {
	db := testDB(t)

	record := &DownloadRecord{
		UserID: 42,
		Title:  "The.Matrix.1999.1080p.BluRay.x264-GRP",
		Hash:   "c12fe1c06bb254907e355b8b655a1c1017c64ceb",
	}
	id, err := db.AddDownload(record)
	if err != nil {
		t.Fatalf("AddDownload failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero id")
	}

	loaded, err := db.GetDownloadByID(id)
	if err != nil {
		t.Fatalf("GetDownloadByID failed: %v", err)
	}
	if loaded.Status != DownloadStatusDownloading {
		t.Errorf("new record must start as downloading, got %s", loaded.Status)
	}
	if loaded.CreatedAt.IsZero() {
		t.Error("CreatedAt must be set on insert")
	}

	if err := db.MarkDownloadCompleted(id); err != nil {
		t.Fatalf("MarkDownloadCompleted failed: %v", err)
	}

	loaded, err = db.GetDownloadByID(id)
	if err != nil {
		t.Fatalf("GetDownloadByID failed: %v", err)
	}
	if loaded.Status != DownloadStatusCompleted {
		t.Errorf("expected completed status, got %s", loaded.Status)
	}
	if loaded.CompletedAt == nil {
		t.Error("CompletedAt must be set on completion")
	}
}

func TestSetDownloadHash(t *testing.T) {
	db := testDB(t)

	id, err := db.AddDownload(&DownloadRecord{UserID: 1, Title: "No Hash Yet"})
	if err != nil {
		t.Fatalf("AddDownload failed: %v", err)
	}

	if err := db.SetDownloadHash(id, "deadbeef"); err != nil {
		t.Fatalf("SetDownloadHash failed: %v", err)
	}

	loaded, err := db.GetDownloadByID(id)
	if err != nil {
		t.Fatalf("GetDownloadByID failed: %v", err)
	}
	if loaded.Hash != "deadbeef" {
		t.Errorf("hash not stored, got %q", loaded.Hash)
	}
}

func TestGetUserDownloadsNewestFirst(t *testing.T) {
	db := testDB(t)

	for _, title := range []string{"first", "second", "third"} {
		if _, err := db.AddDownload(&DownloadRecord{UserID: 7, Title: title}); err != nil {
			t.Fatalf("AddDownload failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if _, err := db.AddDownload(&DownloadRecord{UserID: 8, Title: "other user"}); err != nil {
		t.Fatalf("AddDownload failed: %v", err)
	}

	records, err := db.GetUserDownloads(7)
	if err != nil {
		t.Fatalf("GetUserDownloads failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Title != "third" {
		t.Errorf("expected newest first, got %q", records[0].Title)
	}
}

func TestPurgeDownloadsBefore(t *testing.T) {
	db := testDB(t)

	oldID, err := db.AddDownload(&DownloadRecord{UserID: 1, Title: "old"})
	if err != nil {
		t.Fatalf("AddDownload failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(2 * time.Millisecond)

	recentID, err := db.AddDownload(&DownloadRecord{UserID: 1, Title: "recent"})
	if err != nil {
		t.Fatalf("AddDownload failed: %v", err)
	}

	deleted, err := db.PurgeDownloadsBefore(cutoff)
	if err != nil {
		t.Fatalf("PurgeDownloadsBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deletion, got %d", deleted)
	}

	if _, err := db.GetDownloadByID(oldID); err == nil {
		t.Error("old record must be gone")
	}
	if _, err := db.GetDownloadByID(recentID); err != nil {
		t.Errorf("recent record must survive: %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := testDB(t)

	missing, err := db.GetSession(99)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for an unknown user")
	}

	session := &UserSession{
		UserID:      99,
		State:       StateAwaitingQuery,
		SearchType:  CategoryMovies,
		SearchQuery: "the matrix",
		CurrentPage: 2,
	}
	if err := db.SaveSession(session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	loaded, err := db.GetSession(99)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("session not found after save")
	}
	if loaded.State != StateAwaitingQuery || loaded.SearchQuery != "the matrix" {
		t.Errorf("session fields lost: %+v", loaded)
	}
	if loaded.LastActivity.IsZero() {
		t.Error("LastActivity must be stamped on save")
	}

	// Saving again replaces, not duplicates
	loaded.State = StateShowingResults
	if err := db.SaveSession(loaded); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	again, err := db.GetSession(99)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if again.State != StateShowingResults {
		t.Errorf("expected updated state, got %s", again.State)
	}
}
