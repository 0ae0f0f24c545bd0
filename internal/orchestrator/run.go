package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"gallerydl/internal/events"
	"gallerydl/internal/history"
	"gallerydl/internal/logging"
	"gallerydl/internal/naming"
)

// kickDrain launches the drain goroutine unless one is already running.
// Callers must hold o.mu.
func (o *Orchestrator) kickDrainLocked() {
	if o.draining || !o.running {
		return
	}
	o.draining = true
	o.wg.Add(1)
	go o.drain(o.runCtx)
}

// drain processes queued galleries one at a time until the queue is empty
// or the run context ends. At most one drain goroutine exists at a time.
func (o *Orchestrator) drain(ctx context.Context) {
	defer o.wg.Done()
	for {
		state, ok := o.popHead()
		if !ok {
			o.bus.Publish(events.QueueUpdated(o.QueueSnapshot()))
			return
		}

		o.runGallery(ctx, state)
		o.clearActive(state)

		if ctx.Err() != nil {
			o.finishDraining()
			return
		}
	}
}

// popHead takes the next job off the queue and installs its runtime state.
// When the queue is empty it clears the draining flag and reports false.
func (o *Orchestrator) popHead() (*galleryState, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) == 0 || !o.running {
		o.draining = false
		return nil, false
	}
	job := o.queue[0]
	o.queue = o.queue[1:]
	state := &galleryState{
		job:       job,
		total:     len(job.Images),
		startedAt: time.Now().UTC(),
	}
	o.active = state
	return state, true
}

func (o *Orchestrator) clearActive(state *galleryState) {
	o.mu.Lock()
	if o.active == state {
		o.active = nil
	}
	o.mu.Unlock()
}

func (o *Orchestrator) finishDraining() {
	o.mu.Lock()
	o.draining = false
	o.mu.Unlock()
}

// runGallery drives one gallery: worker pool, per-image retry, outcome
// resolution. Settings are snapshotted once at gallery start.
func (o *Orchestrator) runGallery(ctx context.Context, state *galleryState) {
	settings := o.Settings()
	job := state.job
	images := job.CleanImages()
	total := len(images)
	state.total = total
	title := job.DisplayTitle()

	o.logger.Info("gallery started",
		logging.String(logging.FieldGalleryID, job.GalleryID),
		logging.String("title", title),
		logging.Int("images", total),
		logging.String(logging.FieldEventType, "gallery_started"))
	o.bus.Publish(events.DownloadStatus(job.GalleryID, title, events.StatusPreparing, 0, total))

	resolver := naming.NewResolver(o.store, settings.CreatePerGalleryFolder)

	var next atomic.Int64
	grp, grpCtx := errgroup.WithContext(ctx)
	for i := 0; i < settings.workerCount(); i++ {
		grp.Go(func() error {
			o.worker(grpCtx, state, settings, resolver, images, &next)
			return nil
		})
	}
	_ = grp.Wait()

	if state.abort.Load() || ctx.Err() != nil {
		o.finishAborted(state)
		return
	}
	o.finishCompleted(ctx, state, settings, total)
}

// worker cooperatively claims image indices until the gallery aborts or no
// images remain. Claims are strictly increasing and exactly-once.
func (o *Orchestrator) worker(ctx context.Context, state *galleryState, settings Settings, resolver *naming.Resolver, images []string, next *atomic.Int64) {
	job := state.job
	title := job.DisplayTitle()
	total := len(images)
	for {
		if state.abort.Load() || ctx.Err() != nil {
			return
		}
		idx := int(next.Add(1)) - 1
		if idx >= total {
			return
		}

		o.bus.Publish(events.DownloadStatus(job.GalleryID, title, events.StatusDownloading, idx+1, total))
		o.downloadImage(ctx, state, settings, resolver, images[idx], idx, total)

		if state.abort.Load() {
			return
		}
		if !sleepCtx(ctx, settings.sleepBetweenStarts()) {
			return
		}
	}
}

// downloadImage attempts one image with retry. Exhausting the retry budget
// is fatal for the whole gallery: it records a resume entry, surfaces a
// DownloadError, and requests abort.
func (o *Orchestrator) downloadImage(ctx context.Context, state *galleryState, settings Settings, resolver *naming.Resolver, url string, idx, total int) {
	job := state.job
	meta := naming.Meta{
		GalleryTitle: job.DisplayTitle(),
		GalleryID:    job.GalleryID,
		Index:        idx + 1,
		OrigName:     naming.OrigNameFromURL(url),
		Total:        total,
	}
	path, err := resolver.Resolve(ctx, settings.FilenameTemplate, meta)
	if err != nil {
		path = fmt.Sprintf("%s/%03d.jpg", naming.Sanitize(job.DisplayTitle()), idx+1)
		o.logger.Warn("filename resolution failed, using fallback",
			logging.String(logging.FieldGalleryID, job.GalleryID),
			logging.String("fallback", path),
			logging.Error(err))
	}

	var lastErr error
	for attempt := 1; attempt <= settings.RetryCount; attempt++ {
		if state.abort.Load() || ctx.Err() != nil {
			return
		}
		handle, err := o.executor.Start(ctx, url, path)
		if err == nil {
			o.handles.add(job.GalleryID, handle)
			o.bus.Publish(events.DownloadProgress(job.GalleryID, idx+1, total))
			return
		}
		lastErr = err
		o.logger.Warn("download attempt failed",
			logging.String(logging.FieldGalleryID, job.GalleryID),
			logging.Int("index", idx+1),
			logging.Int("attempt", attempt),
			logging.Error(err))
		if attempt < settings.RetryCount {
			if !sleepCtx(ctx, settings.retryDelay()) {
				return
			}
		}
	}

	msg := fmt.Sprintf("image %d failed after %d attempts: %v", idx+1, settings.RetryCount, lastErr)
	state.recordFailure(idx+1, msg)
	if err := o.store.PutResume(context.WithoutCancel(ctx), history.ResumeRecord{
		GalleryID:    job.GalleryID,
		LastError:    true,
		LastErrorMsg: msg,
		FailedIndex:  idx + 1,
	}); err != nil {
		o.logger.Error("record resume entry failed", logging.Error(err))
	}
	o.bus.Publish(events.DownloadError(job.GalleryID, msg))
	state.abort.Store(true)
	o.logger.Error("gallery aborted by retry exhaustion",
		logging.String(logging.FieldGalleryID, job.GalleryID),
		logging.Int("index", idx+1),
		logging.String(logging.FieldErrorHint, "check the image url and retry settings, then re-enqueue"),
		logging.String(logging.FieldEventType, "gallery_failed"))
}

// finishAborted resolves a gallery whose abort flag was set, whether by a
// user stop or by retry exhaustion. No completed record is written; the
// resume record keeps any failure detail alongside stopped=true.
func (o *Orchestrator) finishAborted(state *galleryState) {
	job := state.job
	for _, handle := range o.handles.forGallery(job.GalleryID) {
		o.executor.Cancel(handle)
	}

	failed, failMsg, failedIndex := state.failure()
	rec := history.ResumeRecord{
		GalleryID:    job.GalleryID,
		Stopped:      true,
		LastError:    failed,
		LastErrorMsg: failMsg,
		FailedIndex:  failedIndex,
	}
	if err := o.store.PutResume(context.Background(), rec); err != nil {
		o.logger.Error("record resume entry failed", logging.Error(err))
	}
	o.bus.Publish(events.DownloadError(job.GalleryID, "stopped"))
	if err := o.notifier.NotifyGalleryFailed(context.Background(), job.DisplayTitle(), failMsg); err != nil {
		o.logger.Warn("failure notification failed", logging.Error(err))
	}
	o.logger.Info("gallery stopped",
		logging.String(logging.FieldGalleryID, job.GalleryID),
		logging.String(logging.FieldEventType, "gallery_stopped"))
}

// finishCompleted waits for the gallery's accepted handles to drain, then
// writes the completed record and removes any resume entry. The wait is
// best-effort: on timeout the gallery is still marked completed.
func (o *Orchestrator) finishCompleted(ctx context.Context, state *galleryState, settings Settings, total int) {
	job := state.job
	o.waitForHandles(ctx, job.GalleryID, settings.completionWait())

	storeCtx := context.WithoutCancel(ctx)
	if err := o.store.PutCompleted(storeCtx, history.CompletedRecord{
		GalleryID: job.GalleryID,
		Title:     job.DisplayTitle(),
		Total:     total,
	}); err != nil {
		o.logger.Error("record completion failed", logging.Error(err))
	}
	if err := o.store.DeleteResume(storeCtx, job.GalleryID); err != nil {
		o.logger.Error("clear resume entry failed", logging.Error(err))
	}
	o.bus.Publish(events.DownloadFinished(job.GalleryID))
	if err := o.notifier.NotifyGalleryFinished(storeCtx, job.DisplayTitle(), total); err != nil {
		o.logger.Warn("finish notification failed", logging.Error(err))
	}
	o.logger.Info("gallery finished",
		logging.String(logging.FieldGalleryID, job.GalleryID),
		logging.Int("images", total),
		logging.String(logging.FieldEventType, "gallery_finished"))
}

// waitForHandles blocks until the gallery has no in-flight handles, the
// timeout elapses, or the context ends. Wakeups come from the handle index
// as the executor reports terminal states.
func (o *Orchestrator) waitForHandles(ctx context.Context, galleryID string, timeout time.Duration) {
	if o.handles.count(galleryID) == 0 {
		return
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			o.logger.Warn("timed out waiting for downloads to settle",
				logging.String(logging.FieldGalleryID, galleryID),
				logging.Int("pending", o.handles.count(galleryID)),
				logging.String(logging.FieldEventType, "completion_wait_timeout"))
			return
		case <-o.handles.drained:
			if o.handles.count(galleryID) == 0 {
				return
			}
		}
	}
}

// sleepCtx sleeps for d, returning false when the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
