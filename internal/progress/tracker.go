package progress

import (
	"sync"
	"time"
)

// Tracker maps job identities to their current [Status]. It is an injected
// instance owned by the orchestrator, not a package-level singleton; workers,
// pollers, and cleanup all share it concurrently.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{statuses: make(map[string]Status)}
}

// Set stores the status for id, stamping UpdatedAt. A stored terminal status
// is write-once: attempts to replace it are ignored and Set reports false.
func (t *Tracker) Set(id string, status Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.statuses[id]; ok && existing.State.Terminal() {
		return false
	}

	status.UpdatedAt = time.Now()
	t.statuses[id] = status
	return true
}

// Get returns the current status for id. Unknown identities, including
// disposed ones, yield [NotFound]. Get never blocks on worker activity.
func (t *Tracker) Get(id string) Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status, ok := t.statuses[id]
	if !ok {
		return NotFound()
	}
	return status
}

// Remove deletes the entry for id entirely. Removing an unknown id is a
// no-op.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.statuses, id)
}

// Len returns the number of tracked jobs.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.statuses)
}
