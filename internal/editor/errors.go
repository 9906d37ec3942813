package editor

import "errors"

var (
	// ErrEmptyChain is returned when an operation needs a current or
	// original artifact but the history holds none.
	ErrEmptyChain = errors.New("no image loaded")

	// ErrNoTargetSelected is returned when a retouch is attempted without a
	// hotspot on the rendered image.
	ErrNoTargetSelected = errors.New("no retouch target selected")

	// ErrNoCropSelected is returned when a crop is attempted with an empty
	// or missing rectangle selection.
	ErrNoCropSelected = errors.New("no crop area selected")

	// ErrEmptyPrompt is returned when a retouch, filter, or adjustment is
	// attempted with no instruction text.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrJobNotReady is returned when a batch job without a processed
	// result is promoted to single-image editing.
	ErrJobNotReady = errors.New("job has no processed result yet")

	// ErrJobNotFound is returned when a job id does not exist in the batch.
	ErrJobNotFound = errors.New("no such job")

	// ErrBusy is returned when an edit or bulk run is requested while
	// another one is still outstanding for the same session.
	ErrBusy = errors.New("an operation is already in progress")

	// ErrNoHandoff is returned when a return-to-batch is requested but the
	// session did not come from a batch item.
	ErrNoHandoff = errors.New("no batch handoff in progress")

	// ErrSessionReset reports that the owning session was torn down while a
	// generation call was outstanding; the result was discarded.
	ErrSessionReset = errors.New("session was reset during generation")

	// ErrArchiveFailed wraps failures of the bulk-download packaging step.
	ErrArchiveFailed = errors.New("failed to build archive")
)

// GenerationError reports that the AI collaborator rejected or errored on a
// request. Message carries the collaborator's own description.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Message
}
