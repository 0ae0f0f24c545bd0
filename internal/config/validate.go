package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		return errors.New("paths.download_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if err := ensurePositiveMap(map[string]int{
		"queue.concurrent_images":               c.Queue.ConcurrentImages,
		"queue.retry_count":                     c.Queue.RetryCount,
		"queue.completion_wait_timeout_minutes": c.Queue.CompletionWaitTimeoutMinutes,
	}); err != nil {
		return err
	}
	if c.Queue.SleepMsBetweenStarts < 0 {
		return errors.New("queue.sleep_ms_between_starts must be >= 0")
	}
	if c.Queue.RetryDelayMs < 0 {
		return errors.New("queue.retry_delay_ms must be >= 0")
	}
	if strings.TrimSpace(c.Queue.FilenameTemplate) == "" {
		return errors.New("queue.filename_template must be set")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
