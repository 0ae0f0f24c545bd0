package ipc

import (
	"gallerydl/internal/events"
	"gallerydl/internal/gallery"
	"gallerydl/internal/history"
	"gallerydl/internal/orchestrator"
)

// EnqueueRequest submits a gallery job to the download queue.
type EnqueueRequest struct {
	Job gallery.Job `json:"job"`
}

// EnqueueResponse indicates whether the job was accepted.
type EnqueueResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// StopGalleryRequest stops one gallery, queued or active.
type StopGalleryRequest struct {
	GalleryID string `json:"gallery_id"`
}

// StopGalleryResponse indicates stop result.
type StopGalleryResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// StopAllRequest clears the queue and aborts all active downloads.
type StopAllRequest struct{}

// StopAllResponse indicates stop-all result.
type StopAllResponse struct {
	OK bool `json:"ok"`
}

// QueueListRequest fetches the pending queue.
type QueueListRequest struct{}

// QueueListResponse contains the pending queue in order.
type QueueListResponse struct {
	Queue []events.QueueEntry `json:"queue"`
}

// SettingsGetRequest fetches the current runtime settings.
type SettingsGetRequest struct{}

// SettingsGetResponse carries the current runtime settings.
type SettingsGetResponse struct {
	Settings orchestrator.Settings `json:"settings"`
}

// SettingsSaveRequest replaces the runtime settings.
type SettingsSaveRequest struct {
	Settings orchestrator.Settings `json:"settings"`
}

// SettingsSaveResponse carries the settings as applied.
type SettingsSaveResponse struct {
	Settings orchestrator.Settings `json:"settings"`
}

// HistoryListRequest fetches completed records.
type HistoryListRequest struct{}

// HistoryListResponse contains all completed records.
type HistoryListResponse struct {
	Completed []history.CompletedRecord `json:"completed"`
}

// ResumeListRequest fetches resume records.
type ResumeListRequest struct{}

// ResumeListResponse contains all resume records.
type ResumeListResponse struct {
	Resume []history.ResumeRecord `json:"resume"`
}

// HistoryExportRequest writes the completed table to a file. An empty path
// selects a timestamped file in the configured export directory.
type HistoryExportRequest struct {
	Path string `json:"path,omitempty"`
}

// HistoryExportResponse reports where the export was written.
type HistoryExportResponse struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// HistoryClearRequest removes all completed records.
type HistoryClearRequest struct{}

// HistoryClearResponse reports number of removed records.
type HistoryClearResponse struct {
	Removed int64 `json:"removed"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/orchestrator status.
type StatusResponse struct {
	Running     bool                         `json:"running"`
	Draining    bool                         `json:"draining"`
	QueueLength int                          `json:"queue_length"`
	Active      *orchestrator.ActiveGallery  `json:"active,omitempty"`
	HistoryDB   string                       `json:"history_db"`
	LockPath    string                       `json:"lock_path"`
	SocketPath  string                       `json:"socket_path"`
	PID         int                          `json:"pid"`
}

// EventsRequest fetches bus events after a sequence number. WaitMillis > 0
// blocks until an event arrives or the wait elapses.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	WaitMillis int    `json:"wait_millis"`
}

// EventsResponse contains fetched events and the cursor for the next call.
type EventsResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
}

// StopDaemonRequest shuts the daemon down.
type StopDaemonRequest struct{}

// StopDaemonResponse indicates shutdown was initiated.
type StopDaemonResponse struct {
	Stopping bool `json:"stopping"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
