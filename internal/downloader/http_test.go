package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitEvent(t *testing.T, executor *HTTPExecutor) Event {
	t.Helper()
	select {
	case evt := <-executor.Events():
		return evt
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for executor event")
		return Event{}
	}
}

func TestStartDownloadsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	root := t.TempDir()
	executor := NewHTTPExecutor(root, nil)
	defer executor.Close()

	handle, err := executor.Start(context.Background(), server.URL+"/a.jpg", "Cats/001_a.jpg")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	evt := waitEvent(t, executor)
	if evt.Handle != handle {
		t.Fatalf("event for wrong handle: %q != %q", evt.Handle, handle)
	}
	if evt.State != StateComplete {
		t.Fatalf("expected complete, got %s (%s)", evt.State, evt.Message)
	}

	data, err := os.ReadFile(filepath.Join(root, "Cats", "001_a.jpg"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("unexpected file contents %q", data)
	}
}

func TestStartRejectsBadScheme(t *testing.T) {
	executor := NewHTTPExecutor(t.TempDir(), nil)
	defer executor.Close()

	if _, err := executor.Start(context.Background(), "ftp://example.com/a.jpg", "a.jpg"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestHTTPErrorReportsInterrupted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	root := t.TempDir()
	executor := NewHTTPExecutor(root, nil)
	defer executor.Close()

	if _, err := executor.Start(context.Background(), server.URL+"/a.jpg", "a.jpg"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	evt := waitEvent(t, executor)
	if evt.State != StateInterrupted {
		t.Fatalf("expected interrupted, got %s", evt.State)
	}
	if _, err := os.Stat(filepath.Join(root, "a.jpg")); !os.IsNotExist(err) {
		t.Fatal("expected no file left behind on failure")
	}
}

func TestCancelInterruptsTransfer(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	executor := NewHTTPExecutor(t.TempDir(), nil)

	handle, err := executor.Start(context.Background(), server.URL+"/slow.jpg", "slow.jpg")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	executor.Cancel(handle)

	evt := waitEvent(t, executor)
	if evt.State != StateInterrupted {
		t.Fatalf("expected interrupted after cancel, got %s", evt.State)
	}
}
