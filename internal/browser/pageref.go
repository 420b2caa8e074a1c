package browser

import "sync"

// PageRef is the single "current page" slot of a session. Writes are
// last-writer-wins and bump a monotonic generation so readers can tell
// whether the page they hold has been superseded.
type PageRef[T any] struct {
	mu    sync.RWMutex
	page  T
	gen   uint64
	valid bool
}

// Set stores p as the current page and returns its generation.
func (r *PageRef[T]) Set(p T) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.page = p
	r.valid = true
	r.gen++
	return r.gen
}

// Get returns the current page and its generation.
func (r *PageRef[T]) Get() (T, uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.page, r.gen, r.valid
}

func (r *PageRef[T]) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}
