package resources

import "sync"

// Handle is a revocable holder of fetched resource bytes. Handles are
// created and released only by the Cache; consumers treat them as
// read-only and must stop using a handle once Bytes reports false.
type Handle struct {
	mu          sync.RWMutex
	data        []byte
	contentType string
	released    bool
}

func newHandle(data []byte, contentType string) *Handle {
	return &Handle{data: data, contentType: contentType}
}

// Bytes returns the resource bytes. The second result is false once the
// handle has been released; the bytes must not be used in that case.
func (h *Handle) Bytes() ([]byte, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released {
		return nil, false
	}
	return h.data, true
}

// ContentType reports the content type the resource was served with.
func (h *Handle) ContentType() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.contentType
}

// Size returns the byte length, or 0 after release.
func (h *Handle) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.data)
}

// release frees the underlying bytes. Idempotent: the cache may call it
// both on supersede and on eviction without double-free concerns.
func (h *Handle) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.data = nil
}
