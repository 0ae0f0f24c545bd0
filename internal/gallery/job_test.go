package gallery

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	job := Job{GalleryID: "g1", Title: "Cats", Images: []string{"https://example.com/a.jpg"}}
	if err := job.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	job = Job{Images: []string{"https://example.com/a.jpg"}}
	if err := job.Validate(); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}

	job = Job{GalleryID: "g1"}
	if err := job.Validate(); !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}

	job = Job{GalleryID: "g1", Images: []string{"  ", ""}}
	if err := job.Validate(); !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages for blank urls, got %v", err)
	}
}

func TestCleanImages(t *testing.T) {
	job := Job{Images: []string{"a", "", "b", "  ", "c"}}
	cleaned := job.CleanImages()
	if len(cleaned) != 3 {
		t.Fatalf("expected 3 urls, got %d", len(cleaned))
	}
	if cleaned[0] != "a" || cleaned[2] != "c" {
		t.Fatalf("order not preserved: %v", cleaned)
	}
}

func TestDisplayTitle(t *testing.T) {
	job := Job{GalleryID: "g1", Title: "Cats"}
	if got := job.DisplayTitle(); got != "Cats" {
		t.Fatalf("unexpected title %q", got)
	}
	job = Job{GalleryID: "g1", Title: "   "}
	if got := job.DisplayTitle(); got != "gallery_g1" {
		t.Fatalf("unexpected fallback %q", got)
	}
}
