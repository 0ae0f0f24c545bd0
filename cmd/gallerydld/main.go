// Command gallerydld runs the gallery download daemon: the orchestrator,
// history store, and JSON-RPC control socket.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"gallerydl/internal/config"
	"gallerydl/internal/daemon"
	"gallerydl/internal/downloader"
	"gallerydl/internal/events"
	"gallerydl/internal/history"
	"gallerydl/internal/ipc"
	"gallerydl/internal/logging"
	"gallerydl/internal/notifications"
	"gallerydl/internal/orchestrator"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr", cfg.LogPath()},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return
	}

	bus := events.NewBus(0)
	executor := downloader.NewHTTPExecutor(cfg.Paths.DownloadDir, logger)
	defer executor.Close()
	notifier := notifications.NewService(cfg)
	orch := orchestrator.New(cfg, store, executor, bus, notifier, logger)

	d, err := daemon.New(cfg, store, orch, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg, d, bus, cancel, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("gallerydld shutting down")
}
