package testsupport

import (
	"context"
	"testing"
	"time"

	"gallerydl/internal/config"
	"gallerydl/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PutCompleted writes a completed record for tests.
func PutCompleted(t testing.TB, store *history.Store, galleryID, title string, total int) {
	t.Helper()

	rec := history.CompletedRecord{
		GalleryID: galleryID,
		Timestamp: time.Now().UTC(),
		Title:     title,
		Total:     total,
	}
	if err := store.PutCompleted(context.Background(), rec); err != nil {
		t.Fatalf("store.PutCompleted: %v", err)
	}
}
