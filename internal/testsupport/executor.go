package testsupport

import (
	"context"
	"fmt"
	"sync"

	"gallerydl/internal/downloader"
)

// StubExecutor is a scriptable downloader.Executor for orchestrator tests.
// By default every Start is accepted and immediately reported complete.
type StubExecutor struct {
	// FailURL causes Start to fail synchronously for a matching URL.
	FailURL string
	// HoldAll suppresses automatic completion events; held handles stay
	// in flight until ReleaseAll.
	HoldAll bool

	mu        sync.Mutex
	started   []StubStart
	cancelled []downloader.Handle
	held      []downloader.Handle
	nextID    int
	events    chan downloader.Event
}

// StubStart records one accepted Start call.
type StubStart struct {
	URL    string
	Path   string
	Handle downloader.Handle
}

// NewStubExecutor builds a stub with a generously buffered event stream.
func NewStubExecutor() *StubExecutor {
	return &StubExecutor{events: make(chan downloader.Event, 1024)}
}

func (s *StubExecutor) Start(_ context.Context, url, path string) (downloader.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailURL != "" && s.FailURL == url {
		return "", fmt.Errorf("stub refuses %s", url)
	}
	s.nextID++
	handle := downloader.Handle(fmt.Sprintf("stub-%d", s.nextID))
	s.started = append(s.started, StubStart{URL: url, Path: path, Handle: handle})
	if s.HoldAll {
		s.held = append(s.held, handle)
	} else {
		s.events <- downloader.Event{Handle: handle, State: downloader.StateComplete}
	}
	return handle, nil
}

func (s *StubExecutor) Cancel(handle downloader.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, handle)
}

func (s *StubExecutor) Events() <-chan downloader.Event {
	return s.events
}

// Emit delivers an arbitrary terminal event, for interruption scenarios.
func (s *StubExecutor) Emit(evt downloader.Event) {
	s.events <- evt
}

// ReleaseAll reports every held handle as complete.
func (s *StubExecutor) ReleaseAll() {
	s.mu.Lock()
	held := s.held
	s.held = nil
	s.mu.Unlock()
	for _, handle := range held {
		s.events <- downloader.Event{Handle: handle, State: downloader.StateComplete}
	}
}

// Started returns a snapshot of accepted Start calls in order.
func (s *StubExecutor) Started() []StubStart {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StubStart, len(s.started))
	copy(out, s.started)
	return out
}

// Cancelled returns the handles passed to Cancel.
func (s *StubExecutor) Cancelled() []downloader.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]downloader.Handle, len(s.cancelled))
	copy(out, s.cancelled)
	return out
}
