// Package naming derives output paths for gallery images from a filename
// template and gallery metadata, consulting download history to keep
// per-gallery folder names unique.
package naming

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxComponentRunes = 200

// HistoryCounter is the slice of the history store the resolver needs.
type HistoryCounter interface {
	CountFolderUses(ctx context.Context, base string) (int, error)
}

// Meta carries the per-image values substituted into the template.
type Meta struct {
	GalleryTitle string
	GalleryID    string
	Index        int // 1-based
	OrigName     string
	Total        int
}

// Resolver expands filename templates and disambiguates gallery folders.
//
// Folder disambiguation counts only completed history, not galleries
// currently in flight; two same-titled galleries processed back-to-back can
// still collide. That is accepted best-effort behavior.
type Resolver struct {
	history          HistoryCounter
	perGalleryFolder bool
}

// NewResolver builds a resolver. history may be nil, in which case folder
// names are used as-is without a uniqueness suffix.
func NewResolver(history HistoryCounter, perGalleryFolder bool) *Resolver {
	return &Resolver{history: history, perGalleryFolder: perGalleryFolder}
}

var extensionPattern = regexp.MustCompile(`(?i)\.[a-z0-9]{2,6}$`)

// Resolve expands the template with meta and returns the relative output
// path for one image. When per-gallery-folder mode is on, the path is
// prefixed with a history-unique folder derived from the gallery title.
func (r *Resolver) Resolve(ctx context.Context, template string, meta Meta) (string, error) {
	title := Sanitize(meta.GalleryTitle)
	if title == "" {
		title = "gallery"
	}
	origName := Sanitize(meta.OrigName)
	if origName == "" {
		origName = fmt.Sprintf("img%d", meta.Index)
	}

	path := template
	path = strings.ReplaceAll(path, "{gallery_title}", title)
	path = strings.ReplaceAll(path, "{gallery_id}", meta.GalleryID)
	path = strings.ReplaceAll(path, "{index}", fmt.Sprintf("%03d", meta.Index))
	path = strings.ReplaceAll(path, "{orig_name}", origName)
	path = strings.ReplaceAll(path, "{total}", fmt.Sprintf("%d", meta.Total))

	if r.perGalleryFolder {
		folder, err := r.uniqueFolder(ctx, title)
		if err != nil {
			return "", err
		}
		if !strings.HasPrefix(path, folder+"/") {
			path = folder + "/" + path
		}
	}

	if !extensionPattern.MatchString(path) {
		path += ".jpg"
	}
	return path, nil
}

// uniqueFolder appends " (n)" to base when completed history already used
// it, where n is the number of prior uses plus one.
func (r *Resolver) uniqueFolder(ctx context.Context, base string) (string, error) {
	if r.history == nil {
		return base, nil
	}
	count, err := r.history.CountFolderUses(ctx, base)
	if err != nil {
		return "", fmt.Errorf("count folder uses: %w", err)
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s (%d)", base, count+1), nil
}

// Sanitize strips filesystem-hostile characters, trims whitespace,
// NFC-normalizes, and truncates to 200 runes.
func Sanitize(value string) string {
	value = norm.NFC.String(value)
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	runes := []rune(cleaned)
	if len(runes) > maxComponentRunes {
		cleaned = string(runes[:maxComponentRunes])
	}
	return cleaned
}

// OrigNameFromURL extracts the last path segment of an image URL, stripped
// of any query string. Returns "" when nothing usable remains.
func OrigNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Path != "" {
		trimmed = parsed.Path
	} else if cut := strings.IndexByte(trimmed, '?'); cut >= 0 {
		trimmed = trimmed[:cut]
	}
	segments := strings.Split(trimmed, "/")
	return segments[len(segments)-1]
}
