package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gallerydl/internal/config"
)

func TestUnconfiguredTopicReturnsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := NewService(&cfg)

	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyGalleryFinished(context.Background(), "Cats", 3); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
}

func TestNotifyGalleryFinishedSendsRequest(t *testing.T) {
	var gotBody string
	var gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotTitle = r.Header.Get("Title")
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Finished = true
	svc := NewService(&cfg)

	if err := svc.NotifyGalleryFinished(context.Background(), "Cats", 3); err != nil {
		t.Fatalf("NotifyGalleryFinished: %v", err)
	}
	if gotBody == "" || gotTitle == "" {
		t.Fatalf("expected message and title headers, got body=%q title=%q", gotBody, gotTitle)
	}
}

func TestNotifyRespectsDisabledFlags(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Finished = false
	cfg.Notifications.Errors = false
	svc := NewService(&cfg)

	if err := svc.NotifyGalleryFinished(context.Background(), "Cats", 3); err != nil {
		t.Fatalf("NotifyGalleryFinished: %v", err)
	}
	if err := svc.NotifyGalleryFailed(context.Background(), "Cats", "boom"); err != nil {
		t.Fatalf("NotifyGalleryFailed: %v", err)
	}
	if requests != 0 {
		t.Fatalf("expected no requests with notifications disabled, got %d", requests)
	}
}

func TestNotifyFailureSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = true
	svc := NewService(&cfg)

	if err := svc.NotifyGalleryFailed(context.Background(), "Cats", "boom"); err == nil {
		t.Fatal("expected error from 403 response")
	}
}
