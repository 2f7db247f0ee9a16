package window

import (
	"sync"

	"github.com/lumenshell/lumen/internal/appearance"
)

// Registry tracks the open windows and exposes them as broadcast
// recipients. It implements appearance.Registry.
type Registry struct {
	mu      sync.RWMutex
	windows map[uint64]*Window
}

// NewRegistry creates an empty window registry.
func NewRegistry() *Registry {
	return &Registry{windows: make(map[uint64]*Window)}
}

// Add registers a window.
func (r *Registry) Add(w *Window) {
	r.mu.Lock()
	r.windows[w.ID()] = w
	r.mu.Unlock()
}

// Remove unregisters a window by id.
func (r *Registry) Remove(id uint64) {
	r.mu.Lock()
	delete(r.windows, id)
	r.mu.Unlock()
}

// Get returns a window by id, or nil.
func (r *Registry) Get(id uint64) *Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.windows[id]
}

// Len returns the number of open windows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// Recipients returns a snapshot of the open windows. The copy keeps
// broadcast iteration safe while windows open or close concurrently.
func (r *Registry) Recipients() []appearance.Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recipients := make([]appearance.Recipient, 0, len(r.windows))
	for _, w := range r.windows {
		recipients = append(recipients, w)
	}
	return recipients
}
