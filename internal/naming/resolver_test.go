package naming

import (
	"context"
	"strings"
	"testing"
)

type stubCounter struct {
	counts map[string]int
}

func (s stubCounter) CountFolderUses(_ context.Context, base string) (int, error) {
	return s.counts[base], nil
}

func TestResolveSubstitutesPlaceholders(t *testing.T) {
	resolver := NewResolver(nil, false)
	path, err := resolver.Resolve(context.Background(), "{gallery_title}/{index}_{orig_name}", Meta{
		GalleryTitle: "A/B",
		GalleryID:    "g1",
		Index:        1,
		OrigName:     "x.png",
		Total:        4,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != "A_B/001_x.png" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestResolveAppendsDefaultExtension(t *testing.T) {
	resolver := NewResolver(nil, false)
	path, err := resolver.Resolve(context.Background(), "{gallery_title}/{index}_{orig_name}", Meta{
		GalleryTitle: "Cats",
		Index:        7,
		OrigName:     "picture",
		Total:        9,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasSuffix(path, "007_picture.jpg") {
		t.Fatalf("expected default .jpg extension, got %q", path)
	}
}

func TestResolveKeepsRecognizedExtension(t *testing.T) {
	resolver := NewResolver(nil, false)
	path, err := resolver.Resolve(context.Background(), "{index}_{orig_name}", Meta{
		GalleryTitle: "Cats",
		Index:        2,
		OrigName:     "photo.webp",
		Total:        3,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != "002_photo.webp" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestResolveUniqueFolderSuffix(t *testing.T) {
	counter := stubCounter{counts: map[string]int{"Foo": 2}}
	resolver := NewResolver(counter, true)
	path, err := resolver.Resolve(context.Background(), "{index}_{orig_name}", Meta{
		GalleryTitle: "Foo",
		Index:        1,
		OrigName:     "a.jpg",
		Total:        1,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(path, "Foo (3)/") {
		t.Fatalf("expected folder Foo (3), got %q", path)
	}
}

func TestResolveUnusedTitleKeepsFolderName(t *testing.T) {
	counter := stubCounter{counts: map[string]int{}}
	resolver := NewResolver(counter, true)
	path, err := resolver.Resolve(context.Background(), "{index}_{orig_name}", Meta{
		GalleryTitle: "Fresh",
		Index:        1,
		OrigName:     "a.jpg",
		Total:        1,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(path, "Fresh/") {
		t.Fatalf("expected folder Fresh, got %q", path)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`a\b/c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeTruncates(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := Sanitize(long)
	if len([]rune(got)) != 200 {
		t.Fatalf("expected 200 runes, got %d", len([]rune(got)))
	}
}

func TestOrigNameFromURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://example.com/images/photo.jpg?token=abc", "photo.jpg"},
		{"https://example.com/a/b/c.png", "c.png"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := OrigNameFromURL(tc.in); got != tc.want {
			t.Fatalf("OrigNameFromURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
