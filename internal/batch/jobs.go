package batch

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/darkroom-tools/darkroom/internal/display"
	"github.com/darkroom-tools/darkroom/internal/editor"
)

// Status tracks one job's position in the batch lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Job is one image's record inside a batch. Original is the unedited upload
// and is only ever read; Processed holds the latest successful bulk or
// single-edit result. Processed is non-nil exactly when Status is done.
type Job struct {
	ID        int
	Name      string
	Original  *editor.Artifact
	Processed *editor.Artifact
	Status    Status
	Err       string

	handle *display.Handle
}

// JobSet is the unordered collection of independent per-image jobs created
// from one multi-file upload. Ids are assigned sequentially from 0 and stay
// stable for the set's lifetime; they are the sole handoff key between batch
// and single mode.
type JobSet struct {
	mu        sync.RWMutex
	registry  *display.Registry
	jobs      []*Job
	destroyed bool
}

// NewJobSet builds one pending job per original artifact.
func NewJobSet(registry *display.Registry, originals []*editor.Artifact) *JobSet {
	set := &JobSet{registry: registry}
	for i, a := range originals {
		set.jobs = append(set.jobs, &Job{
			ID:       i,
			Name:     a.Name,
			Original: a,
			Status:   StatusPending,
		})
	}
	return set
}

func (s *JobSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Job returns a snapshot copy of the job with the given id.
func (s *JobSet) Job(id int) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.jobs) {
		return Job{}, false
	}
	return *s.jobs[id], true
}

// Jobs returns snapshot copies of every job in id order.
func (s *JobSet) Jobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = *j
	}
	return out
}

// Settled reports whether every job has reached done or error.
func (s *JobSet) Settled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if j.Status != StatusDone && j.Status != StatusError {
			return false
		}
	}
	return true
}

// MarkAllProcessing flips every job to processing before any work starts, the
// visible "work has begun" signal distinct from per-item completion. Prior
// Processed artifacts are kept until a new success overwrites them.
func (s *JobSet) MarkAllProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	for _, j := range s.jobs {
		j.Status = StatusProcessing
		j.Err = ""
	}
}

// Complete records a successful result for one job: the prior processed
// artifact's display handle is released, the new artifact stored, status set
// to done, and any stale error cleared. A completion arriving after Destroy
// is discarded silently.
func (s *JobSet) Complete(id int, result *editor.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		slog.Debug("Discarding batch result for destroyed job set", "job_id", id)
		return
	}
	if id < 0 || id >= len(s.jobs) {
		return
	}
	j := s.jobs[id]
	if err := j.handle.Release(); err != nil {
		slog.Error("Failed to release superseded display handle", "job_id", id, "err", err)
	}
	j.Processed = result
	j.handle = s.registry.Acquire(result.ID)
	j.Status = StatusDone
	j.Err = ""
}

// Fail records a per-job failure. A previously successful Processed artifact
// is retained until a later success overwrites it; only the status and
// message change.
func (s *JobSet) Fail(id int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		slog.Debug("Discarding batch failure for destroyed job set", "job_id", id)
		return
	}
	if id < 0 || id >= len(s.jobs) {
		return
	}
	j := s.jobs[id]
	j.Status = StatusError
	j.Err = message
}

// ReplaceProcessed swaps in an externally edited artifact for a done job.
// Used when a single-image sub-session returns its result to the batch.
func (s *JobSet) ReplaceProcessed(id int, result *editor.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.jobs) {
		return fmt.Errorf("%w: id %d", editor.ErrJobNotFound, id)
	}
	j := s.jobs[id]
	if j.Status != StatusDone || j.Processed == nil {
		return editor.ErrJobNotReady
	}
	if err := j.handle.Release(); err != nil {
		slog.Error("Failed to release superseded display handle", "job_id", id, "err", err)
	}
	j.Processed = result
	j.handle = s.registry.Acquire(result.ID)
	return nil
}

// Destroyed reports whether the set has been torn down.
func (s *JobSet) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}

// Destroy releases every live display handle and marks the set dead. Results
// from still-outstanding generator calls are discarded on arrival.
func (s *JobSet) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	for _, j := range s.jobs {
		if err := j.handle.Release(); err != nil {
			slog.Error("Failed to release display handle on teardown", "job_id", j.ID, "err", err)
		}
		j.handle = nil
	}
}
