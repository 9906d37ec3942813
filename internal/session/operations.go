package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/darkroom-tools/darkroom/internal/batch"
	"github.com/darkroom-tools/darkroom/internal/editor"
	"github.com/darkroom-tools/darkroom/internal/generate"
	"github.com/darkroom-tools/darkroom/internal/images"
)

// BulkKind selects which bulk operation a batch run performs. Localized
// retouch and crop need a pixel-precise target on one rendered image and are
// deliberately not available in bulk.
type BulkKind string

const (
	BulkFilter BulkKind = "filter"
	BulkAdjust BulkKind = "adjust"
)

// Retouch sends the current image and the pending hotspot to the generator
// and appends the result as a new version. The hotspot is converted from the
// rendered coordinate space it was clicked in to the artifact's native pixel
// space before the call.
func (s *Session) Retouch(ctx context.Context, provider generate.Provider, instruction string) (*editor.Artifact, error) {
	current, pending, epoch, err := s.beginGeneration(instruction)
	if err != nil {
		return nil, err
	}
	if pending.point == nil {
		s.abortGeneration(epoch)
		return nil, editor.ErrNoTargetSelected
	}

	w, h, err := images.Dimensions(current.Data)
	if err != nil {
		s.abortGeneration(epoch)
		return nil, fmt.Errorf("failed to read image dimensions: %w", err)
	}
	hotspot := images.ToNative(*pending.point, pending.rendered, editor.Size{Width: w, Height: h})

	result, err := provider.EditImage(ctx, current, instruction, hotspot)
	return s.commitGeneration(epoch, result, err)
}

// Filter applies a stylistic filter to the current image and appends the
// result.
func (s *Session) Filter(ctx context.Context, provider generate.Provider, stylePrompt string) (*editor.Artifact, error) {
	current, _, epoch, err := s.beginGeneration(stylePrompt)
	if err != nil {
		return nil, err
	}
	result, err := provider.FilterImage(ctx, current, stylePrompt)
	return s.commitGeneration(epoch, result, err)
}

// Adjust applies a global adjustment to the current image and appends the
// result.
func (s *Session) Adjust(ctx context.Context, provider generate.Provider, adjustmentPrompt string) (*editor.Artifact, error) {
	current, _, epoch, err := s.beginGeneration(adjustmentPrompt)
	if err != nil {
		return nil, err
	}
	result, err := provider.AdjustImage(ctx, current, adjustmentPrompt)
	return s.commitGeneration(epoch, result, err)
}

// Crop cuts the pending rectangle out of the current image at native
// resolution and appends the result. Crop is local work, no generator call.
func (s *Session) Crop() (*editor.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireSingle(); err != nil {
		return nil, err
	}
	if s.busy {
		return nil, editor.ErrBusy
	}
	if s.pending.rect == nil {
		return nil, editor.ErrNoCropSelected
	}
	current, err := s.chain.Current()
	if err != nil {
		return nil, err
	}

	result, err := images.Crop(current, *s.pending.rect, s.pending.rendered)
	if err != nil {
		return nil, err
	}
	s.chain.Append(result)
	s.pending = selection{}
	return result, nil
}

// RunBulk drives the whole batch through one filter or adjustment, strictly
// sequentially, applying the generator to each job's original upload. The
// session stays usable for reads while the run is in flight; per-item status
// updates are visible as they happen.
func (s *Session) RunBulk(ctx context.Context, provider generate.Provider, kind BulkKind, prompt string) (batch.Summary, error) {
	s.mu.Lock()
	if s.mode != ModeBatch || s.jobs == nil {
		s.mu.Unlock()
		return batch.Summary{}, errors.New("no batch is active")
	}
	if s.busy {
		s.mu.Unlock()
		return batch.Summary{}, editor.ErrBusy
	}
	if err := generate.ValidatePrompt(prompt); err != nil {
		s.mu.Unlock()
		return batch.Summary{}, err
	}

	var apply batch.Generator
	switch kind {
	case BulkFilter:
		apply = func(ctx context.Context, original *editor.Artifact) (*editor.Artifact, error) {
			return provider.FilterImage(ctx, original, prompt)
		}
	case BulkAdjust:
		apply = func(ctx context.Context, original *editor.Artifact) (*editor.Artifact, error) {
			return provider.AdjustImage(ctx, original, prompt)
		}
	default:
		s.mu.Unlock()
		return batch.Summary{}, fmt.Errorf("unknown bulk operation %q", kind)
	}

	set := s.jobs
	epoch := s.epoch
	s.busy = true
	s.mu.Unlock()

	processor := batch.Processor{OnProgress: func(p batch.Progress) {
		s.mu.Lock()
		s.progress = &p
		s.mu.Unlock()
	}}
	summary := processor.Run(ctx, set, apply)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.busy = false
		s.progress = nil
	}
	return summary, nil
}

// Jobs returns snapshot copies of the active batch's jobs.
func (s *Session) Jobs() []batch.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		return nil
	}
	return s.jobs.Jobs()
}

// ProcessedArtifacts collects every done job's result for bulk download,
// keyed by a collision-free output filename.
func (s *Session) ProcessedArtifacts() (map[string]*editor.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.jobs == nil {
		return nil, errors.New("no batch is active")
	}
	out := make(map[string]*editor.Artifact)
	for _, job := range s.jobs.Jobs() {
		if job.Status == batch.StatusDone && job.Processed != nil {
			out[fmt.Sprintf("edited-%d-%s", job.ID, job.Name)] = job.Processed
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no processed images yet", editor.ErrArchiveFailed)
	}
	return out, nil
}

// beginGeneration validates a single-mode generation request, marks the
// session busy, and captures everything the continuation needs.
func (s *Session) beginGeneration(prompt string) (*editor.Artifact, selection, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireSingle(); err != nil {
		return nil, selection{}, 0, err
	}
	if s.busy {
		return nil, selection{}, 0, editor.ErrBusy
	}
	if err := generate.ValidatePrompt(prompt); err != nil {
		return nil, selection{}, 0, err
	}
	current, err := s.chain.Current()
	if err != nil {
		return nil, selection{}, 0, err
	}

	s.busy = true
	return current, s.pending, s.epoch, nil
}

// abortGeneration clears the busy flag after a validation failure that was
// detected between begin and the generator call.
func (s *Session) abortGeneration(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.busy = false
	}
}

// commitGeneration is the continuation after an awaited generator call. If
// the session was reset while the call was outstanding the result is dropped;
// on failure the chain is left untouched so a failed edit never corrupts
// history.
func (s *Session) commitGeneration(epoch uint64, result *editor.Artifact, genErr error) (*editor.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		slog.Debug("Discarding generation result, session was reset", "session_id", s.ID)
		return nil, editor.ErrSessionReset
	}
	s.busy = false
	if genErr != nil {
		return nil, genErr
	}

	s.chain.Append(result)
	s.pending = selection{}
	return result, nil
}
