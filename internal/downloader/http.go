package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"gallerydl/internal/logging"
)

const httpUserAgent = "gallerydl/0.1"

// HTTPExecutor downloads files over HTTP into a root directory. Each
// accepted transfer runs in its own goroutine with its own cancellable
// context; terminal states are delivered on the Events channel.
type HTTPExecutor struct {
	root   string
	client *http.Client
	logger *slog.Logger

	events chan Event

	mu      sync.Mutex
	cancels map[Handle]context.CancelFunc
	closed  bool

	wg sync.WaitGroup
}

// NewHTTPExecutor builds an executor rooted at dir.
func NewHTTPExecutor(dir string, logger *slog.Logger) *HTTPExecutor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HTTPExecutor{
		root:    dir,
		client:  &http.Client{Timeout: 10 * time.Minute},
		logger:  logging.WithComponent(logger, "downloader"),
		events:  make(chan Event, 128),
		cancels: make(map[Handle]context.CancelFunc),
	}
}

// Events returns the terminal-state notification stream.
func (e *HTTPExecutor) Events() <-chan Event {
	return e.events
}

// Start validates the request and begins the transfer. The returned handle
// is registered before the goroutine runs, so a terminal event for it can
// always be correlated.
func (e *HTTPExecutor) Start(ctx context.Context, rawURL, relPath string) (Handle, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	target := filepath.Join(e.root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create target directory: %w", err)
	}

	handle := Handle(uuid.NewString())
	transferCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cancel()
		return "", errors.New("executor closed")
	}
	e.cancels[handle] = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	go e.transfer(transferCtx, handle, rawURL, target)
	return handle, nil
}

// Cancel aborts an in-flight transfer. Unknown handles are ignored.
func (e *HTTPExecutor) Cancel(handle Handle) {
	e.mu.Lock()
	cancel, ok := e.cancels[handle]
	e.mu.Unlock()
	if ok {
		cancel()
	}
}

// Close cancels all transfers and waits for their terminal events to be
// emitted, then closes the event stream.
func (e *HTTPExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	cancels := make([]context.CancelFunc, 0, len(e.cancels))
	for _, cancel := range e.cancels {
		cancels = append(cancels, cancel)
	}
	e.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	e.wg.Wait()
	close(e.events)
}

func (e *HTTPExecutor) transfer(ctx context.Context, handle Handle, rawURL, target string) {
	defer e.wg.Done()
	err := e.fetch(ctx, rawURL, target)

	e.mu.Lock()
	if cancel, ok := e.cancels[handle]; ok {
		cancel()
		delete(e.cancels, handle)
	}
	e.mu.Unlock()

	evt := Event{Handle: handle, State: StateComplete}
	if err != nil {
		evt.State = StateInterrupted
		evt.Message = err.Error()
		e.logger.Warn("transfer interrupted",
			logging.String("url", rawURL),
			logging.Error(err),
			logging.String(logging.FieldEventType, "transfer_interrupted"))
		// Leave no partial file behind.
		_ = os.Remove(target)
	}
	e.events <- evt
}

func (e *HTTPExecutor) fetch(ctx context.Context, rawURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", httpUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	file, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
