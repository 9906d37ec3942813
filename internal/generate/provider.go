package generate

import (
	"context"
	"strings"

	"github.com/darkroom-tools/darkroom/internal/editor"
)

// Provider defines the interface to the AI image generation service. All
// three calls are asynchronous from the caller's point of view, may fail with
// an arbitrary descriptive error, and must never mutate the input artifact.
type Provider interface {
	// EditImage performs a localized retouch at the given hotspot. The
	// point is in the source artifact's native pixel coordinate space.
	EditImage(ctx context.Context, image *editor.Artifact, instruction string, hotspot editor.Point) (*editor.Artifact, error)

	// FilterImage applies a stylistic filter across the whole image.
	FilterImage(ctx context.Context, image *editor.Artifact, stylePrompt string) (*editor.Artifact, error)

	// AdjustImage applies a global, photorealistic adjustment.
	AdjustImage(ctx context.Context, image *editor.Artifact, adjustmentPrompt string) (*editor.Artifact, error)
}

// ValidatePrompt rejects empty or whitespace-only instruction text before a
// generation call is issued.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return editor.ErrEmptyPrompt
	}
	return nil
}
