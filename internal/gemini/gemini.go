package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/darkroom-tools/darkroom/internal/editor"
)

const defaultModel = "gemini-2.5-flash-image-preview"

// Gemini is the image-editing provider backed by Google Gemini.
type Gemini struct {
	model string
}

// New returns a new Gemini provider. An empty model selects the default
// image-capable model; GEMINI_MODEL overrides it.
func New(model string) *Gemini {
	if model == "" {
		model = os.Getenv("GEMINI_MODEL")
	}
	if model == "" {
		model = defaultModel
	}
	return &Gemini{model: model}
}

// EditImage performs a localized retouch at the given native-pixel hotspot.
func (g *Gemini) EditImage(ctx context.Context, image *editor.Artifact, instruction string, hotspot editor.Point) (*editor.Artifact, error) {
	prompt := fmt.Sprintf(
		"You are an expert photo editor. Perform a natural, localized edit at pixel coordinates (x: %d, y: %d): %q. "+
			"The rest of the image must remain identical to the input. Return only the edited image.",
		hotspot.X, hotspot.Y, instruction)
	return g.generate(ctx, image, prompt, "edited")
}

// FilterImage applies a stylistic filter across the whole image.
func (g *Gemini) FilterImage(ctx context.Context, image *editor.Artifact, stylePrompt string) (*editor.Artifact, error) {
	prompt := fmt.Sprintf(
		"You are an expert photo editor. Apply this stylistic filter to the entire image: %q. "+
			"Do not change the composition or content, only the style. Return only the filtered image.",
		stylePrompt)
	return g.generate(ctx, image, prompt, "filtered")
}

// AdjustImage applies a global, photorealistic adjustment.
func (g *Gemini) AdjustImage(ctx context.Context, image *editor.Artifact, adjustmentPrompt string) (*editor.Artifact, error) {
	prompt := fmt.Sprintf(
		"You are an expert photo editor. Perform a natural, global adjustment to the entire image: %q. "+
			"The result must be photorealistic. Return only the adjusted image.",
		adjustmentPrompt)
	return g.generate(ctx, image, prompt, "adjusted")
}

func (g *Gemini) generate(ctx context.Context, image *editor.Artifact, prompt, label string) (*editor.Artifact, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(imageFormat(image.MIME), image.Data),
		genai.Text(prompt),
	)
	if err != nil {
		return nil, &editor.GenerationError{Message: err.Error()}
	}

	if len(resp.Candidates) == 0 {
		return nil, &editor.GenerationError{Message: "no candidates returned from Gemini"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &editor.GenerationError{Message: "empty content returned from Gemini"}
	}

	for _, part := range candidate.Content.Parts {
		if blob, ok := part.(genai.Blob); ok {
			name := fmt.Sprintf("%s-%s", label, image.Name)
			return editor.NewArtifact(name, blob.MIMEType, blob.Data), nil
		}
	}

	// The model answered with text instead of an image, typically a refusal.
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return nil, &editor.GenerationError{Message: string(txt)}
	}

	return nil, &editor.GenerationError{Message: "no image returned from Gemini"}
}

// imageFormat maps a MIME type like "image/png" to the bare format name
// genai.ImageData expects.
func imageFormat(mime string) string {
	if format, ok := strings.CutPrefix(mime, "image/"); ok && format != "" {
		return format
	}
	return "png"
}
