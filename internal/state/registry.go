package state

import (
	"sync"

	"camwatch/internal/logging"
)

// RegistryPersistFunc receives the full camera order after a new camera
// is observed.
type RegistryPersistFunc func(cameras []string)

// CameraRegistry tracks camera IDs in first-seen order. The set is
// append-only for the session: a camera that stops sending frames stays
// registered, and reconnects never remove entries. Whether a camera is
// currently live is a presentation concern, not a registry one.
type CameraRegistry struct {
	mu      sync.RWMutex
	order   []string
	known   map[string]bool
	persist RegistryPersistFunc
}

// NewCameraRegistry creates an empty registry. persist may be nil.
func NewCameraRegistry(persist RegistryPersistFunc) *CameraRegistry {
	return &CameraRegistry{
		known:   make(map[string]bool),
		persist: persist,
	}
}

// Rehydrate seeds the registry from a persisted camera order. Called
// once at cold start; does not trigger a persist.
func (r *CameraRegistry) Rehydrate(cameras []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range cameras {
		if id == "" || r.known[id] {
			continue
		}
		r.known[id] = true
		r.order = append(r.order, id)
	}
	logging.Debug("Camera registry rehydrated with %d cameras", len(r.order))
}

// Observe registers a camera ID. Observing a known camera is a no-op;
// a new camera is appended to the end of the order and the updated
// order is persisted.
func (r *CameraRegistry) Observe(cameraID string) {
	if cameraID == "" {
		return
	}

	r.mu.Lock()
	if r.known[cameraID] {
		r.mu.Unlock()
		return
	}
	r.known[cameraID] = true
	r.order = append(r.order, cameraID)
	snapshot := make([]string, len(r.order))
	copy(snapshot, r.order)
	r.mu.Unlock()

	logging.Info("New camera discovered: %s (%d total)", cameraID, len(snapshot))
	if r.persist != nil {
		r.persist(snapshot)
	}
}

// Known reports whether a camera ID has been observed.
func (r *CameraRegistry) Known(cameraID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.known[cameraID]
}

// List returns the camera IDs in first-seen order.
func (r *CameraRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of known cameras.
func (r *CameraRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
