// Package gallery defines the gallery job model consumed by the
// orchestrator. Jobs are produced by external collectors (scrapers, UIs)
// and are immutable once queued.
package gallery

import (
	"errors"
	"strings"
)

var (
	// ErrMissingID is returned when a job has no gallery identifier.
	ErrMissingID = errors.New("gallery job requires a gallery id")
	// ErrNoImages is returned when a job carries no image URLs.
	ErrNoImages = errors.New("gallery job requires at least one image url")
)

// Job is the queued unit of work: one gallery and its ordered image URLs.
type Job struct {
	GalleryID string            `json:"gallery_id"`
	Title     string            `json:"title"`
	Images    []string          `json:"images"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Validate reports whether the job is admissible to the queue.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.GalleryID) == "" {
		return ErrMissingID
	}
	if len(j.CleanImages()) == 0 {
		return ErrNoImages
	}
	return nil
}

// CleanImages returns the image URLs with blank entries removed, in order.
func (j *Job) CleanImages() []string {
	images := make([]string, 0, len(j.Images))
	for _, url := range j.Images {
		if strings.TrimSpace(url) == "" {
			continue
		}
		images = append(images, url)
	}
	return images
}

// DisplayTitle returns the job title, or a stable fallback derived from the
// gallery id when the collector supplied none.
func (j *Job) DisplayTitle() string {
	if title := strings.TrimSpace(j.Title); title != "" {
		return title
	}
	return "gallery_" + j.GalleryID
}
