package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/darkroom-tools/darkroom/internal/batch"
	"github.com/darkroom-tools/darkroom/internal/display"
	"github.com/darkroom-tools/darkroom/internal/editor"
)

// Mode identifies which editing surface a session currently exposes.
type Mode string

const (
	// ModeEmpty is the pre-upload state and the state after a start-over.
	ModeEmpty Mode = "empty"
	// ModeSingle is focused editing of one image with undo/redo history.
	ModeSingle Mode = "single"
	// ModeBatch is bulk processing of independent per-image jobs.
	ModeBatch Mode = "batch"
)

// handoff snapshots the batch a single-image sub-session was promoted from.
// It is non-nil exactly while a batch item is being edited individually and
// must be folded back or discarded before the session leaves single mode.
type handoff struct {
	jobs  *batch.JobSet
	jobID int
}

// selection is a pending hotspot or crop rectangle, remembered together with
// the rendered size it was picked at so it can be mapped to native pixels
// later. Any change of the displayed version invalidates it.
type selection struct {
	point    *editor.Point
	rect     *editor.Rect
	rendered editor.Size
}

// Session is the single editing context one user works in: the active mode,
// the version chain or job set behind it, the batch handoff snapshot, and the
// busy flag serializing generation work.
//
// All mutation happens under one mutex; generator calls are made with the
// mutex released and their continuations re-validate the session epoch, so a
// start-over that raced an outstanding call silently discards its result.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	registry *display.Registry
	mode     Mode
	chain    *editor.VersionChain
	jobs     *batch.JobSet
	handoff  *handoff
	pending  selection
	busy     bool
	epoch    uint64
	progress *batch.Progress
}

// New creates a session from one upload. Exactly one file starts single-image
// editing; more than one starts batch mode. This is the sole mode-selection
// rule.
func New(id string, uploads []*editor.Artifact) (*Session, error) {
	if len(uploads) == 0 {
		return nil, errors.New("upload contained no files")
	}

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		registry:  display.NewRegistry(),
	}
	if len(uploads) == 1 {
		s.mode = ModeSingle
		s.chain = editor.NewVersionChain(s.registry, uploads[0])
	} else {
		s.mode = ModeBatch
		s.jobs = batch.NewJobSet(s.registry, uploads)
	}
	return s, nil
}

// Registry exposes the display-handle accounting for this session.
func (s *Session) Registry() *display.Registry {
	return s.registry
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// SelectHotspot records the retouch target as clicked on the rendered image.
func (s *Session) SelectHotspot(p editor.Point, rendered editor.Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSingle(); err != nil {
		return err
	}
	s.pending = selection{point: &p, rendered: rendered}
	return nil
}

// SelectCrop records the crop rectangle as drawn on the rendered image.
func (s *Session) SelectCrop(r editor.Rect, rendered editor.Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSingle(); err != nil {
		return err
	}
	if r.Empty() {
		return editor.ErrNoCropSelected
	}
	s.pending = selection{rect: &r, rendered: rendered}
	return nil
}

// CurrentImage returns the artifact the single-mode cursor points at.
func (s *Session) CurrentImage() (*editor.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chain == nil {
		return nil, editor.ErrEmptyChain
	}
	return s.chain.Current()
}

// JobImage returns a batch job's displayable artifact: the processed result
// when one exists, otherwise the original upload.
func (s *Session) JobImage(jobID int) (*editor.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		return nil, errors.New("no batch is active")
	}
	job, ok := s.jobs.Job(jobID)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", editor.ErrJobNotFound, jobID)
	}
	if job.Processed != nil {
		return job.Processed, nil
	}
	return job.Original, nil
}

// Undo steps the history cursor back one version.
func (s *Session) Undo() error { return s.moveCursor((*editor.VersionChain).Undo) }

// Redo steps the history cursor forward one version.
func (s *Session) Redo() error { return s.moveCursor((*editor.VersionChain).Redo) }

// ResetHistory returns the cursor to the original upload without truncating
// the chain.
func (s *Session) ResetHistory() error { return s.moveCursor((*editor.VersionChain).Reset) }

func (s *Session) moveCursor(move func(*editor.VersionChain) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSingle(); err != nil {
		return err
	}
	if s.busy {
		return editor.ErrBusy
	}
	if move(s.chain) {
		// The selection referred to the previously rendered version.
		s.pending = selection{}
	}
	return nil
}

// CanUndo and CanRedo report cursor mobility for the active chain.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain != nil && s.chain.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain != nil && s.chain.CanRedo()
}

// EditJob promotes a finished batch item into a single-image sub-session.
// The new chain is seeded with exactly the job's processed artifact, so undo
// inside the sub-session can reach the batch result but nothing before it.
func (s *Session) EditJob(jobID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeBatch || s.jobs == nil {
		return errors.New("no batch is active")
	}
	if s.busy {
		return editor.ErrBusy
	}
	job, ok := s.jobs.Job(jobID)
	if !ok {
		return fmt.Errorf("%w: id %d", editor.ErrJobNotFound, jobID)
	}
	if job.Status != batch.StatusDone || job.Processed == nil {
		return editor.ErrJobNotReady
	}

	s.handoff = &handoff{jobs: s.jobs, jobID: jobID}
	s.jobs = nil
	s.chain = editor.NewVersionChain(s.registry, job.Processed)
	s.pending = selection{}
	s.mode = ModeSingle
	slog.Info("Promoted batch job to single-image editing", "session_id", s.ID, "job_id", jobID)
	return nil
}

// ReturnToBatch folds the sub-session's current artifact back into the job it
// was promoted from and restores batch mode. The sub-session's intermediate
// undo history is discarded; only the final artifact survives.
func (s *Session) ReturnToBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handoff == nil {
		return editor.ErrNoHandoff
	}
	if s.busy {
		return editor.ErrBusy
	}
	current, err := s.chain.Current()
	if err != nil {
		return err
	}
	if err := s.handoff.jobs.ReplaceProcessed(s.handoff.jobID, current); err != nil {
		return err
	}

	slog.Info("Returned edited result to batch", "session_id", s.ID, "job_id", s.handoff.jobID)
	s.chain.Destroy()
	s.chain = nil
	s.jobs = s.handoff.jobs
	s.handoff = nil
	s.pending = selection{}
	s.mode = ModeBatch
	return nil
}

// DiscardEdit abandons a single-image sub-session without folding its result
// back, restoring the batch exactly as it was at promotion time.
func (s *Session) DiscardEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handoff == nil {
		return editor.ErrNoHandoff
	}
	if s.busy {
		return editor.ErrBusy
	}

	s.chain.Destroy()
	s.chain = nil
	s.jobs = s.handoff.jobs
	s.handoff = nil
	s.pending = selection{}
	s.mode = ModeBatch
	return nil
}

// StartOver tears the whole session down: every live display handle across
// chain, batch, and handoff snapshot is released and the session returns to
// the empty pre-upload state. It works even while a generation call is
// outstanding; the call's result is discarded when it lands.
func (s *Session) StartOver() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.busy = false
	s.progress = nil
	s.pending = selection{}
	if s.chain != nil {
		s.chain.Destroy()
		s.chain = nil
	}
	if s.jobs != nil {
		s.jobs.Destroy()
		s.jobs = nil
	}
	if s.handoff != nil {
		s.handoff.jobs.Destroy()
		s.handoff = nil
	}
	s.mode = ModeEmpty
	slog.Info("Session reset", "session_id", s.ID)
}

func (s *Session) requireSingle() error {
	if s.mode != ModeSingle {
		return errors.New("operation is only available in single-image mode")
	}
	if s.chain == nil {
		return editor.ErrEmptyChain
	}
	return nil
}
