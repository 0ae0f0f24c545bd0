package daemon_test

import (
	"context"
	"strings"
	"testing"

	"gallerydl/internal/daemon"
	"gallerydl/internal/events"
	"gallerydl/internal/orchestrator"
	"gallerydl/internal/testsupport"
)

func TestStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	orch := orchestrator.New(cfg, store, testsupport.NewStubExecutor(), events.NewBus(0), nil, nil)

	d, err := daemon.New(cfg, store, orch, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status := d.Status()
	if !status.Running {
		t.Fatal("expected running status after start")
	}
	if status.SocketPath != cfg.SocketPath() {
		t.Fatalf("unexpected socket path %q", status.SocketPath)
	}
	if !strings.HasSuffix(status.LockFilePath, "gallerydld.lock") {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected stopped status after stop")
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	bus := events.NewBus(0)

	first, err := daemon.New(cfg, store, orchestrator.New(cfg, store, testsupport.NewStubExecutor(), bus, nil, nil), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(first.Stop)

	second, err := daemon.New(cfg, store, orchestrator.New(cfg, store, testsupport.NewStubExecutor(), bus, nil, nil), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected lock conflict for second instance")
	}
}

func TestRestartAfterStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	orch := orchestrator.New(cfg, store, testsupport.NewStubExecutor(), events.NewBus(0), nil, nil)

	d, err := daemon.New(cfg, store, orch, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	d.Stop()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	d.Stop()
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemon.New(cfg, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
