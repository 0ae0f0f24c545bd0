package orchestrator

import (
	"sync"

	"gallerydl/internal/downloader"
)

// handleIndex tracks which in-flight download handles belong to which
// gallery. The executor event reaction removes entries as handles reach a
// terminal state; the drain loop waits on that via the drained channel.
type handleIndex struct {
	mu        sync.Mutex
	byHandle  map[downloader.Handle]string
	byGallery map[string]map[downloader.Handle]struct{}
	drained   chan struct{}
}

func newHandleIndex() *handleIndex {
	return &handleIndex{
		byHandle:  make(map[downloader.Handle]string),
		byGallery: make(map[string]map[downloader.Handle]struct{}),
		drained:   make(chan struct{}, 1),
	}
}

func (h *handleIndex) add(galleryID string, handle downloader.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byHandle[handle] = galleryID
	set, ok := h.byGallery[galleryID]
	if !ok {
		set = make(map[downloader.Handle]struct{})
		h.byGallery[galleryID] = set
	}
	set[handle] = struct{}{}
}

// remove drops a handle from the index and reports the gallery it belonged
// to. Unknown handles return ok=false.
func (h *handleIndex) remove(handle downloader.Handle) (string, bool) {
	h.mu.Lock()
	galleryID, ok := h.byHandle[handle]
	if ok {
		delete(h.byHandle, handle)
		if set := h.byGallery[galleryID]; set != nil {
			delete(set, handle)
			if len(set) == 0 {
				delete(h.byGallery, galleryID)
			}
		}
	}
	h.mu.Unlock()
	if ok {
		h.signal()
	}
	return galleryID, ok
}

func (h *handleIndex) count(galleryID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byGallery[galleryID])
}

// forGallery returns a snapshot of the gallery's active handles.
func (h *handleIndex) forGallery(galleryID string) []downloader.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.byGallery[galleryID]
	handles := make([]downloader.Handle, 0, len(set))
	for handle := range set {
		handles = append(handles, handle)
	}
	return handles
}

// activeGalleries returns the ids of every gallery with at least one
// in-flight handle.
func (h *handleIndex) activeGalleries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.byGallery))
	for id := range h.byGallery {
		ids = append(ids, id)
	}
	return ids
}

// signal wakes a waiter, if any. The channel holds one pending wakeup;
// waiters re-check counts after each receive.
func (h *handleIndex) signal() {
	select {
	case h.drained <- struct{}{}:
	default:
	}
}
