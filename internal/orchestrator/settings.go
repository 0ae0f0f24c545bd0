package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"gallerydl/internal/config"
)

// Settings are the runtime tunables of the orchestrator. They seed from the
// configuration file, can be replaced live over IPC, and persist across
// restarts through the history store.
type Settings struct {
	SleepMsBetweenStarts         int    `json:"sleep_ms_between_starts"`
	ConcurrentImages             int    `json:"concurrent_images"`
	RetryCount                   int    `json:"retry_count"`
	RetryDelayMs                 int    `json:"retry_delay_ms"`
	FilenameTemplate             string `json:"filename_template"`
	CreatePerGalleryFolder       bool   `json:"create_per_gallery_folder"`
	CompletionWaitTimeoutMinutes int    `json:"completion_wait_timeout_minutes"`
}

// SettingsFromConfig derives the initial runtime settings from the [queue]
// configuration section.
func SettingsFromConfig(q config.Queue) Settings {
	return Settings{
		SleepMsBetweenStarts:         q.SleepMsBetweenStarts,
		ConcurrentImages:             q.ConcurrentImages,
		RetryCount:                   q.RetryCount,
		RetryDelayMs:                 q.RetryDelayMs,
		FilenameTemplate:             q.FilenameTemplate,
		CreatePerGalleryFolder:       q.CreatePerGalleryFolder,
		CompletionWaitTimeoutMinutes: q.CompletionWaitTimeoutMinutes,
	}
}

// Validate rejects settings no drain loop could run with.
func (s Settings) Validate() error {
	if s.ConcurrentImages < 1 {
		return fmt.Errorf("concurrent_images must be at least 1, got %d", s.ConcurrentImages)
	}
	if s.RetryCount < 1 {
		return fmt.Errorf("retry_count must be at least 1, got %d", s.RetryCount)
	}
	if s.SleepMsBetweenStarts < 0 {
		return fmt.Errorf("sleep_ms_between_starts must not be negative, got %d", s.SleepMsBetweenStarts)
	}
	if s.RetryDelayMs < 0 {
		return fmt.Errorf("retry_delay_ms must not be negative, got %d", s.RetryDelayMs)
	}
	if strings.TrimSpace(s.FilenameTemplate) == "" {
		return fmt.Errorf("filename_template must not be empty")
	}
	if s.CompletionWaitTimeoutMinutes < 1 {
		return fmt.Errorf("completion_wait_timeout_minutes must be at least 1, got %d", s.CompletionWaitTimeoutMinutes)
	}
	return nil
}

func (s Settings) sleepBetweenStarts() time.Duration {
	return time.Duration(s.SleepMsBetweenStarts) * time.Millisecond
}

func (s Settings) retryDelay() time.Duration {
	return time.Duration(s.RetryDelayMs) * time.Millisecond
}

func (s Settings) completionWait() time.Duration {
	return time.Duration(s.CompletionWaitTimeoutMinutes) * time.Minute
}

func (s Settings) workerCount() int {
	if s.ConcurrentImages < 1 {
		return 1
	}
	return s.ConcurrentImages
}
