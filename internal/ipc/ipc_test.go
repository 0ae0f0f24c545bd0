package ipc_test

import (
	"context"
	"os"
	"testing"
	"time"

	"gallerydl/internal/config"
	"gallerydl/internal/daemon"
	"gallerydl/internal/events"
	"gallerydl/internal/gallery"
	"gallerydl/internal/ipc"
	"gallerydl/internal/orchestrator"
	"gallerydl/internal/testsupport"
)

type harness struct {
	cfg      *config.Config
	client   *ipc.Client
	executor *testsupport.StubExecutor
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	queue := config.Queue{
		SleepMsBetweenStarts:         0,
		ConcurrentImages:             1,
		RetryCount:                   2,
		RetryDelayMs:                 0,
		FilenameTemplate:             "{gallery_title}/{index}_{orig_name}",
		CreatePerGalleryFolder:       false,
		CompletionWaitTimeoutMinutes: 1,
	}
	cfg := testsupport.NewConfig(t, testsupport.WithQueueSettings(queue))
	store := testsupport.MustOpenStore(t, cfg)
	executor := testsupport.NewStubExecutor()
	bus := events.NewBus(256)
	orch := orchestrator.New(cfg, store, executor, bus, nil, nil)

	d, err := daemon.New(cfg, store, orch, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server, err := ipc.NewServer(ctx, cfg, d, bus, cancel, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return &harness{cfg: cfg, client: client, executor: executor}
}

func (h *harness) waitForFinish(t *testing.T, galleryID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var since uint64
	for time.Now().Before(deadline) {
		resp, err := h.client.Events(ipc.EventsRequest{Since: since, Limit: 100, WaitMillis: 500})
		if err != nil {
			t.Fatalf("Events: %v", err)
		}
		for _, evt := range resp.Events {
			if evt.Type == events.TypeDownloadFinished && evt.GalleryID == galleryID {
				return
			}
		}
		since = resp.Next
	}
	t.Fatalf("gallery %s never finished", galleryID)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !resp.Running {
		t.Fatal("expected running daemon")
	}
	if resp.SocketPath != h.cfg.SocketPath() {
		t.Fatalf("unexpected socket path %q", resp.SocketPath)
	}
}

func TestEnqueueAndHistory(t *testing.T) {
	h := newHarness(t)

	job := gallery.Job{
		GalleryID: "g1",
		Title:     "Cats",
		Images:    []string{"https://example.com/a.jpg", "https://example.com/b.jpg"},
	}
	resp, err := h.client.Enqueue(job)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !resp.Accepted {
		t.Fatalf("job rejected: %s", resp.Message)
	}

	h.waitForFinish(t, "g1")

	hist, err := h.client.HistoryList()
	if err != nil {
		t.Fatalf("HistoryList: %v", err)
	}
	if len(hist.Completed) != 1 || hist.Completed[0].GalleryID != "g1" {
		t.Fatalf("unexpected history %+v", hist.Completed)
	}

	resume, err := h.client.ResumeList()
	if err != nil {
		t.Fatalf("ResumeList: %v", err)
	}
	if len(resume.Resume) != 0 {
		t.Fatalf("expected no resume records, got %+v", resume.Resume)
	}
}

func TestEnqueueRejectsInvalidJob(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.Enqueue(gallery.Job{Title: "no id"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if resp.Accepted {
		t.Fatal("expected rejection for invalid job")
	}
	if resp.Message == "" {
		t.Fatal("expected rejection reason")
	}
}

func TestStopGalleryRequiresID(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.StopGallery("")
	if err != nil {
		t.Fatalf("StopGallery: %v", err)
	}
	if resp.OK {
		t.Fatal("expected ok=false for empty id")
	}
	if resp.Message != "no_gid" {
		t.Fatalf("unexpected reason %q", resp.Message)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	h := newHarness(t)

	current, err := h.client.SettingsGet()
	if err != nil {
		t.Fatalf("SettingsGet: %v", err)
	}
	if current.Settings.ConcurrentImages != 1 {
		t.Fatalf("unexpected seeded settings %+v", current.Settings)
	}

	updated := current.Settings
	updated.ConcurrentImages = 4
	saved, err := h.client.SettingsSave(updated)
	if err != nil {
		t.Fatalf("SettingsSave: %v", err)
	}
	if saved.Settings.ConcurrentImages != 4 {
		t.Fatalf("settings not applied: %+v", saved.Settings)
	}

	if _, err := h.client.SettingsSave(orchestrator.Settings{}); err == nil {
		t.Fatal("expected error for invalid settings")
	}
}

func TestHistoryExportAndClear(t *testing.T) {
	h := newHarness(t)

	job := gallery.Job{GalleryID: "g1", Title: "Cats", Images: []string{"https://example.com/a.jpg"}}
	if _, err := h.client.Enqueue(job); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	h.waitForFinish(t, "g1")

	export, err := h.client.HistoryExport("")
	if err != nil {
		t.Fatalf("HistoryExport: %v", err)
	}
	if export.Count != 1 {
		t.Fatalf("expected 1 exported record, got %d", export.Count)
	}
	if _, err := os.Stat(export.Path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	cleared, err := h.client.HistoryClear()
	if err != nil {
		t.Fatalf("HistoryClear: %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("expected 1 removed, got %d", cleared.Removed)
	}

	hist, err := h.client.HistoryList()
	if err != nil {
		t.Fatalf("HistoryList: %v", err)
	}
	if len(hist.Completed) != 0 {
		t.Fatalf("expected empty history, got %+v", hist.Completed)
	}
}

func TestQueueListEmpty(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.QueueList()
	if err != nil {
		t.Fatalf("QueueList: %v", err)
	}
	if len(resp.Queue) != 0 {
		t.Fatalf("expected empty queue, got %+v", resp.Queue)
	}
}
