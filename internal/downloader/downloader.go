// Package downloader abstracts the capability that transfers one file.
// The orchestrator only sees opaque handles: Start accepts a transfer,
// and the terminal outcome arrives later on the Events stream.
package downloader

import "context"

// Handle identifies one in-flight download.
type Handle string

// State is the terminal state of an accepted download.
type State string

const (
	StateComplete    State = "complete"
	StateInterrupted State = "interrupted"
)

// Event is a terminal-state notification for an accepted download.
type Event struct {
	Handle  Handle
	State   State
	Message string
}

// Executor performs file downloads. Start may fail synchronously (bad URL,
// unwritable target); once it returns a handle, the transfer's outcome is
// reported asynchronously on Events. Cancel is best-effort.
type Executor interface {
	Start(ctx context.Context, url, path string) (Handle, error)
	Cancel(handle Handle)
	Events() <-chan Event
}
