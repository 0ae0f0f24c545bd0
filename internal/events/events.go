package events

import "time"

// Type identifies the event variants published by the orchestrator.
type Type string

const (
	TypeQueueUpdated     Type = "queue_updated"
	TypeDownloadStatus   Type = "download_status"
	TypeDownloadProgress Type = "download_progress"
	TypeDownloadFinished Type = "download_finished"
	TypeDownloadError    Type = "download_error"
	TypeHistoryCleared   Type = "history_cleared"
)

// Status values carried by download_status events.
const (
	StatusPreparing   = "preparing"
	StatusDownloading = "downloading"
)

// QueueEntry is the queue snapshot element carried by queue_updated events.
type QueueEntry struct {
	Title     string `json:"title"`
	GalleryID string `json:"gallery_id"`
}

// Event is one orchestrator status broadcast. Fields beyond Type and
// Sequence are populated per variant.
type Event struct {
	Sequence  uint64       `json:"seq"`
	Timestamp time.Time    `json:"ts"`
	Type      Type         `json:"type"`
	GalleryID string       `json:"gallery_id,omitempty"`
	Title     string       `json:"title,omitempty"`
	Status    string       `json:"status,omitempty"`
	Index     int          `json:"index,omitempty"`
	Current   int          `json:"current,omitempty"`
	Total     int          `json:"total,omitempty"`
	Message   string       `json:"message,omitempty"`
	Queue     []QueueEntry `json:"queue,omitempty"`
}

// QueueUpdated builds a queue_updated event with the given snapshot.
func QueueUpdated(queue []QueueEntry) Event {
	if queue == nil {
		queue = []QueueEntry{}
	}
	return Event{Type: TypeQueueUpdated, Queue: queue}
}

// DownloadStatus builds a download_status event.
func DownloadStatus(galleryID, title, status string, index, total int) Event {
	return Event{
		Type:      TypeDownloadStatus,
		GalleryID: galleryID,
		Title:     title,
		Status:    status,
		Index:     index,
		Total:     total,
	}
}

// DownloadProgress builds a download_progress event.
func DownloadProgress(galleryID string, current, total int) Event {
	return Event{Type: TypeDownloadProgress, GalleryID: galleryID, Current: current, Total: total}
}

// DownloadFinished builds a download_finished event.
func DownloadFinished(galleryID string) Event {
	return Event{Type: TypeDownloadFinished, GalleryID: galleryID}
}

// DownloadError builds a download_error event.
func DownloadError(galleryID, message string) Event {
	return Event{Type: TypeDownloadError, GalleryID: galleryID, Message: message}
}

// HistoryCleared builds a history_cleared event.
func HistoryCleared() Event {
	return Event{Type: TypeHistoryCleared}
}
