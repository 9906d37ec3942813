package session

import (
	"time"

	"github.com/darkroom-tools/darkroom/internal/batch"
)

// State is a point-in-time view of a session, safe to serialize.
type State struct {
	ID           string          `json:"id"`
	Mode         Mode            `json:"mode"`
	Busy         bool            `json:"busy"`
	CreatedAt    time.Time       `json:"created_at"`
	History      *HistoryState   `json:"history,omitempty"`
	Jobs         []JobState      `json:"jobs,omitempty"`
	HandoffJobID *int            `json:"handoff_job_id,omitempty"`
	Progress     *batch.Progress `json:"progress,omitempty"`
}

// HistoryState describes the single-mode version chain.
type HistoryState struct {
	Length  int  `json:"length"`
	Index   int  `json:"index"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// JobState describes one batch job without its image bytes.
type JobState struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Status    batch.Status `json:"status"`
	Error     string       `json:"error,omitempty"`
	Processed bool         `json:"processed"`
}

// Snapshot captures the session's current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		ID:        s.ID,
		Mode:      s.mode,
		Busy:      s.busy,
		CreatedAt: s.CreatedAt,
		Progress:  s.progress,
	}
	if s.chain != nil {
		state.History = &HistoryState{
			Length:  s.chain.Len(),
			Index:   s.chain.Index(),
			CanUndo: s.chain.CanUndo(),
			CanRedo: s.chain.CanRedo(),
		}
	}
	if s.jobs != nil {
		for _, job := range s.jobs.Jobs() {
			state.Jobs = append(state.Jobs, JobState{
				ID:        job.ID,
				Name:      job.Name,
				Status:    job.Status,
				Error:     job.Err,
				Processed: job.Processed != nil,
			})
		}
	}
	if s.handoff != nil {
		id := s.handoff.jobID
		state.HandoffJobID = &id
	}
	return state
}
