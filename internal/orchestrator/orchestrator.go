// Package orchestrator drives gallery downloads: it owns the FIFO queue of
// gallery jobs, runs a bounded worker pool per gallery with per-image retry,
// reacts to executor terminal events, and records outcomes in the history
// store. Galleries are processed strictly one at a time in queue order.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gallerydl/internal/config"
	"gallerydl/internal/downloader"
	"gallerydl/internal/events"
	"gallerydl/internal/gallery"
	"gallerydl/internal/history"
	"gallerydl/internal/logging"
	"gallerydl/internal/notifications"
)

// Orchestrator coordinates queue draining, download execution, and history
// bookkeeping. External callers mutate it only through its methods; the
// queue and runtime state are guarded by a single mutex.
type Orchestrator struct {
	store    *history.Store
	executor downloader.Executor
	bus      *events.Bus
	notifier notifications.Service
	logger   *slog.Logger
	handles  *handleIndex

	mu       sync.Mutex
	settings Settings
	queue    []gallery.Job
	active   *galleryState
	running  bool
	draining bool
	runCtx   context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// galleryState is the transient runtime state of the gallery currently
// processing. abortRequested is read by all workers; the failure fields are
// written by the worker that exhausted its retry budget.
type galleryState struct {
	job       gallery.Job
	total     int
	startedAt time.Time
	abort     atomic.Bool

	failMu      sync.Mutex
	failed      bool
	failMsg     string
	failedIndex int
}

func (g *galleryState) recordFailure(index int, msg string) {
	g.failMu.Lock()
	if !g.failed {
		g.failed = true
		g.failMsg = msg
		g.failedIndex = index
	}
	g.failMu.Unlock()
}

func (g *galleryState) failure() (bool, string, int) {
	g.failMu.Lock()
	defer g.failMu.Unlock()
	return g.failed, g.failMsg, g.failedIndex
}

// ActiveGallery describes the gallery currently processing.
type ActiveGallery struct {
	GalleryID string    `json:"gallery_id"`
	Title     string    `json:"title"`
	Total     int       `json:"total"`
	StartedAt time.Time `json:"started_at"`
}

// Status is a point-in-time snapshot of the orchestrator.
type Status struct {
	Running     bool           `json:"running"`
	Draining    bool           `json:"draining"`
	QueueLength int            `json:"queue_length"`
	Active      *ActiveGallery `json:"active,omitempty"`
}

// New builds an orchestrator seeded with the configured queue settings.
func New(cfg *config.Config, store *history.Store, executor downloader.Executor, bus *events.Bus, notifier notifications.Service, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	return &Orchestrator{
		store:    store,
		executor: executor,
		bus:      bus,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "orchestrator"),
		handles:  newHandleIndex(),
		settings: SettingsFromConfig(cfg.Queue),
	}
}

// Start prepares the orchestrator for queue processing and begins consuming
// executor events. Persisted settings, when present, override the configured
// seed. Start rejects re-entry while already running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return Wrap(ErrTransient, "orchestrator", "start", "already running", nil)
	}

	if o.store != nil {
		var persisted Settings
		found, err := o.store.LoadSettings(ctx, &persisted)
		if err != nil {
			o.logger.Warn("load persisted settings failed", logging.Error(err))
		} else if found {
			if err := persisted.Validate(); err != nil {
				o.logger.Warn("persisted settings invalid, using configured defaults", logging.Error(err))
			} else {
				o.settings = persisted
			}
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.runCtx = runCtx
	o.cancel = cancel
	o.running = true

	o.wg.Add(1)
	go o.consumeExecutorEvents(runCtx)

	o.logger.Info("orchestrator started",
		logging.Int("concurrent_images", o.settings.ConcurrentImages),
		logging.String(logging.FieldEventType, "orchestrator_started"))
	return nil
}

// Stop cancels all processing and waits for the drain loop and event
// consumer to exit. Safe to call when not running.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel := o.cancel
	o.cancel = nil
	if o.active != nil {
		o.active.abort.Store(true)
	}
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	o.wg.Wait()
	o.logger.Info("orchestrator stopped", logging.String(logging.FieldEventType, "orchestrator_stopped"))
}

// Running reports whether Start has been called without a matching Stop.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Status returns a snapshot of the orchestrator's current state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Status{
		Running:     o.running,
		Draining:    o.draining,
		QueueLength: len(o.queue),
	}
	if o.active != nil {
		st.Active = &ActiveGallery{
			GalleryID: o.active.job.GalleryID,
			Title:     o.active.job.DisplayTitle(),
			Total:     o.active.total,
			StartedAt: o.active.startedAt,
		}
	}
	return st
}

// consumeExecutorEvents reacts to download terminal states. A completed
// handle just leaves the index; an interrupted one additionally surfaces a
// DownloadError for its gallery, without aborting it.
func (o *Orchestrator) consumeExecutorEvents(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-o.executor.Events():
			if !ok {
				return
			}
			galleryID, known := o.handles.remove(evt.Handle)
			if !known {
				continue
			}
			if evt.State == downloader.StateInterrupted {
				msg := evt.Message
				if msg == "" {
					msg = "interrupted"
				}
				o.logger.Warn("download interrupted",
					logging.String(logging.FieldGalleryID, galleryID),
					logging.String("detail", msg),
					logging.String(logging.FieldEventType, "download_interrupted"))
				o.bus.Publish(events.DownloadError(galleryID, "interrupted"))
			}
		}
	}
}
