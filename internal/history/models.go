package history

import "time"

// CompletedRecord marks a gallery whose images all downloaded successfully.
// Presence is authoritative "done": it drives the UI done-mark and folder
// name disambiguation.
type CompletedRecord struct {
	GalleryID string    `json:"gallery_id"`
	Timestamp time.Time `json:"ts"`
	Title     string    `json:"title"`
	Total     int       `json:"total"`
}

// ResumeRecord marks a gallery that did not finish cleanly, either because
// the user stopped it or because an image exhausted its retry budget. It is
// deleted when the gallery later completes.
type ResumeRecord struct {
	GalleryID    string    `json:"gallery_id"`
	Timestamp    time.Time `json:"ts"`
	Stopped      bool      `json:"stopped"`
	LastError    bool      `json:"last_error"`
	LastErrorMsg string    `json:"last_error_msg,omitempty"`
	FailedIndex  int       `json:"failed_index,omitempty"`
}

// Export is the serialized shape written by ExportCompleted.
type Export struct {
	Timestamp time.Time         `json:"timestamp"`
	Completed []CompletedRecord `json:"completed"`
}
