// Package notifications sends optional push notifications about gallery
// outcomes via ntfy. When no topic is configured a noop implementation is
// returned so callers never need nil checks.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gallerydl/internal/config"
)

const userAgent = "gallerydl/0.1"

// Service defines the notification surface exposed to the orchestrator.
type Service interface {
	NotifyGalleryFinished(ctx context.Context, title string, total int) error
	NotifyGalleryFailed(ctx context.Context, title, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		notifyFinished: cfg.Notifications.Finished,
		notifyErrors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	notifyFinished bool
	notifyErrors   bool
}

func (n *ntfyService) NotifyGalleryFinished(ctx context.Context, title string, total int) error {
	if !n.notifyFinished {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Gallerydl - Download Complete",
		message: fmt.Sprintf("Finished: %s (%d images)", title, total),
		tags:    []string{"gallerydl", "download", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyGalleryFailed(ctx context.Context, title, reason string) error {
	if !n.notifyErrors {
		return nil
	}
	title = strings.TrimSpace(title)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	data := payload{
		title:    "Gallerydl - Download Failed",
		message:  fmt.Sprintf("Failed: %s\n%s", title, reason),
		tags:     []string{"gallerydl", "download", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Gallerydl - Test",
		message:  "Notification system test",
		tags:     []string{"gallerydl", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyGalleryFinished(context.Context, string, int) error { return nil }
func (noopService) NotifyGalleryFailed(context.Context, string, string) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
