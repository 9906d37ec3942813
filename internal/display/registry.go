package display

import (
	"errors"
	"sync"
)

// ErrAlreadyReleased is returned when a handle is released a second time.
var ErrAlreadyReleased = errors.New("display handle already released")

// Handle is a transient reference to an artifact's bytes usable for on-screen
// display. A handle is owned by exactly one slot (a version chain's displayed
// entry or a batch job's processed result) and must be released exactly once,
// when that slot is overwritten or its owner is discarded.
type Handle struct {
	registry   *Registry
	artifactID uint64
	released   bool
}

// ArtifactID identifies the artifact this handle renders.
func (h *Handle) ArtifactID() uint64 {
	return h.artifactID
}

// Release revokes the handle. Releasing twice is a contract violation and
// returns ErrAlreadyReleased without touching registry state.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	return h.registry.release(h)
}

// Registry tracks every live display handle so that transient display
// resources cannot accumulate across repeated edits and batches. It doubles
// as the accounting surface tests use to prove the release-exactly-once
// contract.
type Registry struct {
	mu       sync.Mutex
	live     map[*Handle]struct{}
	acquired int
	released int
}

func NewRegistry() *Registry {
	return &Registry{
		live: make(map[*Handle]struct{}),
	}
}

// Acquire issues a fresh handle for the artifact with the given id.
func (r *Registry) Acquire(artifactID uint64) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := &Handle{registry: r, artifactID: artifactID}
	r.live[h] = struct{}{}
	r.acquired++
	return h
}

func (r *Registry) release(h *Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.released {
		return ErrAlreadyReleased
	}
	h.released = true
	delete(r.live, h)
	r.released++
	return nil
}

// LiveCount reports how many handles have been acquired but not yet released.
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Acquired and Released report lifetime totals.
func (r *Registry) Acquired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acquired
}

func (r *Registry) Released() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}
