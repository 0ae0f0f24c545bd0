package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gallerydl/internal/events"
)

func TestReadJobFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.json")
	payload := `{"gallery_id":"g1","title":"Cats","images":["https://example.com/a.jpg"]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write job file: %v", err)
	}

	job, err := readJob(path, nil)
	if err != nil {
		t.Fatalf("readJob: %v", err)
	}
	if job.GalleryID != "g1" || job.Title != "Cats" || len(job.Images) != 1 {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestReadJobFromStdin(t *testing.T) {
	stdin := strings.NewReader(`{"gallery_id":"g2","images":["https://example.com/a.jpg"]}`)

	job, err := readJob("-", stdin)
	if err != nil {
		t.Fatalf("readJob: %v", err)
	}
	if job.GalleryID != "g2" {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestReadJobRejectsUnknownFields(t *testing.T) {
	stdin := strings.NewReader(`{"gallery_id":"g1","images":[],"bogus":true}`)

	if _, err := readJob("-", stdin); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestReadJobMissingFile(t *testing.T) {
	if _, err := readJob(filepath.Join(t.TempDir(), "absent.json"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)

	cases := []struct {
		name string
		evt  events.Event
		want string
	}{
		{
			name: "queue empty",
			evt:  events.Event{Timestamp: ts, Type: events.TypeQueueUpdated},
			want: "queue empty",
		},
		{
			name: "queue titles",
			evt: events.Event{Timestamp: ts, Type: events.TypeQueueUpdated, Queue: []events.QueueEntry{
				{Title: "Cats", GalleryID: "g1"},
				{Title: "Dogs", GalleryID: "g2"},
			}},
			want: "queue: Cats, Dogs",
		},
		{
			name: "preparing",
			evt: events.Event{
				Timestamp: ts,
				Type:      events.TypeDownloadStatus,
				Title:     "Cats",
				Status:    events.StatusPreparing,
				Total:     5,
			},
			want: "Cats: preparing (5 images)",
		},
		{
			name: "downloading",
			evt: events.Event{
				Timestamp: ts,
				Type:      events.TypeDownloadStatus,
				Title:     "Cats",
				Status:    events.StatusDownloading,
				Index:     2,
				Total:     5,
			},
			want: "Cats: downloading 2/5",
		},
		{
			name: "finished",
			evt:  events.Event{Timestamp: ts, Type: events.TypeDownloadFinished, GalleryID: "g1"},
			want: "g1: finished",
		},
		{
			name: "error",
			evt:  events.Event{Timestamp: ts, Type: events.TypeDownloadError, GalleryID: "g1", Message: "stopped"},
			want: "g1: error: stopped",
		},
		{
			name: "history cleared",
			evt:  events.Event{Timestamp: ts, Type: events.TypeHistoryCleared},
			want: "history cleared",
		},
	}

	for _, tc := range cases {
		got := formatEvent(tc.evt)
		if !strings.HasSuffix(got, tc.want) {
			t.Fatalf("%s: got %q, want suffix %q", tc.name, got, tc.want)
		}
	}
}
