package orchestrator

import (
	"context"

	"gallerydl/internal/events"
	"gallerydl/internal/gallery"
	"gallerydl/internal/history"
	"gallerydl/internal/logging"
)

// Enqueue validates a job and appends it to the FIFO, starting the drain
// loop if it is not already running.
func (o *Orchestrator) Enqueue(job gallery.Job) error {
	if err := job.Validate(); err != nil {
		return Wrap(ErrInvalidJob, "orchestrator", "enqueue", "", err)
	}
	job.Images = job.CleanImages()

	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return ErrNotRunning
	}
	o.queue = append(o.queue, job)
	snapshot := o.queueSnapshotLocked()
	o.kickDrainLocked()
	o.mu.Unlock()

	o.logger.Info("gallery queued",
		logging.String(logging.FieldGalleryID, job.GalleryID),
		logging.String("title", job.DisplayTitle()),
		logging.Int("images", len(job.Images)),
		logging.String(logging.FieldEventType, "gallery_queued"))
	o.bus.Publish(events.QueueUpdated(snapshot))
	return nil
}

// StopGallery removes a queued job and/or aborts the active gallery with the
// given id. Stopping an unknown gallery is a no-op success.
func (o *Orchestrator) StopGallery(ctx context.Context, galleryID string) error {
	if galleryID == "" {
		return Wrap(ErrInvalidJob, "orchestrator", "stop gallery", "gallery id required", nil)
	}

	o.mu.Lock()
	removed := false
	kept := o.queue[:0]
	for _, job := range o.queue {
		if job.GalleryID == galleryID {
			removed = true
			continue
		}
		kept = append(kept, job)
	}
	o.queue = kept
	aborted := false
	if o.active != nil && o.active.job.GalleryID == galleryID {
		o.active.abort.Store(true)
		aborted = true
	}
	snapshot := o.queueSnapshotLocked()
	o.mu.Unlock()

	if !removed && !aborted {
		return nil
	}

	for _, handle := range o.handles.forGallery(galleryID) {
		o.executor.Cancel(handle)
	}
	if err := o.store.PutResume(context.WithoutCancel(ctx), history.ResumeRecord{
		GalleryID: galleryID,
		Stopped:   true,
	}); err != nil {
		o.logger.Error("record resume entry failed", logging.Error(err))
	}
	o.bus.Publish(events.QueueUpdated(snapshot))
	o.logger.Info("stop requested",
		logging.String(logging.FieldGalleryID, galleryID),
		logging.Bool("was_active", aborted),
		logging.String(logging.FieldEventType, "gallery_stop_requested"))
	return nil
}

// StopAll clears the queue and aborts every gallery with in-flight
// downloads.
func (o *Orchestrator) StopAll(ctx context.Context) error {
	o.mu.Lock()
	o.queue = nil
	if o.active != nil {
		o.active.abort.Store(true)
	}
	o.mu.Unlock()

	storeCtx := context.WithoutCancel(ctx)
	for _, galleryID := range o.handles.activeGalleries() {
		for _, handle := range o.handles.forGallery(galleryID) {
			o.executor.Cancel(handle)
		}
		if err := o.store.PutResume(storeCtx, history.ResumeRecord{
			GalleryID: galleryID,
			Stopped:   true,
		}); err != nil {
			o.logger.Error("record resume entry failed", logging.Error(err))
		}
	}

	o.bus.Publish(events.QueueUpdated(nil))
	o.logger.Info("stop-all requested", logging.String(logging.FieldEventType, "stop_all_requested"))
	return nil
}

// QueueSnapshot returns the pending queue in order, excluding the gallery
// currently processing.
func (o *Orchestrator) QueueSnapshot() []events.QueueEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queueSnapshotLocked()
}

func (o *Orchestrator) queueSnapshotLocked() []events.QueueEntry {
	snapshot := make([]events.QueueEntry, 0, len(o.queue))
	for _, job := range o.queue {
		snapshot = append(snapshot, events.QueueEntry{Title: job.DisplayTitle(), GalleryID: job.GalleryID})
	}
	return snapshot
}

// Settings returns a copy of the current runtime settings.
func (o *Orchestrator) Settings() Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings
}

// UpdateSettings validates and applies new runtime settings, persisting
// them so they survive restarts. Galleries already processing keep the
// settings they started with.
func (o *Orchestrator) UpdateSettings(ctx context.Context, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return Wrap(ErrInvalidJob, "orchestrator", "update settings", "", err)
	}

	o.mu.Lock()
	o.settings = settings
	o.mu.Unlock()

	if o.store != nil {
		if err := o.store.SaveSettings(ctx, settings); err != nil {
			return Wrap(ErrTransient, "orchestrator", "persist settings", "", err)
		}
	}
	o.logger.Info("settings updated",
		logging.Int("concurrent_images", settings.ConcurrentImages),
		logging.Int("retry_count", settings.RetryCount),
		logging.String(logging.FieldEventType, "settings_updated"))
	return nil
}
