package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is a named, reusable prompt for a filter or adjustment.
type Preset struct {
	Name   string `yaml:"name" json:"name"`
	Prompt string `yaml:"prompt" json:"prompt"`
}

// Presets groups the prompt presets offered for one-click use.
type Presets struct {
	Filters     []Preset `yaml:"filters" json:"filters"`
	Adjustments []Preset `yaml:"adjustments" json:"adjustments"`
}

// Default returns the built-in presets used when no file is supplied.
func Default() *Presets {
	return &Presets{
		Filters: []Preset{
			{Name: "Synthwave", Prompt: "Apply a vibrant 80s synthwave aesthetic with neon magenta and cyan glows"},
			{Name: "Anime", Prompt: "Give the image a vibrant Japanese anime style with bold outlines and cel shading"},
			{Name: "Lomo", Prompt: "Apply a Lomography cross-processed film look with high-contrast saturated colors and vignetting"},
			{Name: "Glitch", Prompt: "Transform the image with a digital glitch effect, datamoshing and pixel sorting"},
		},
		Adjustments: []Preset{
			{Name: "Blur Background", Prompt: "Apply a realistic depth-of-field effect, keeping the main subject sharp while blurring the background"},
			{Name: "Enhance Details", Prompt: "Slightly enhance the sharpness and detail of the image without making it look unnatural"},
			{Name: "Warmer Lighting", Prompt: "Adjust the color temperature to give the image warmer, golden-hour style lighting"},
			{Name: "Studio Light", Prompt: "Add dramatic, professional studio lighting to the main subject"},
		},
	}
}

// Load reads presets from a YAML file.
func Load(path string) (*Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}

	var p Presets
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse presets file: %w", err)
	}
	if len(p.Filters) == 0 && len(p.Adjustments) == 0 {
		return nil, fmt.Errorf("presets file %s contains no presets", path)
	}
	return &p, nil
}

// Find returns the preset with the given name from either group.
func (p *Presets) Find(name string) (Preset, bool) {
	for _, preset := range p.Filters {
		if preset.Name == name {
			return preset, true
		}
	}
	for _, preset := range p.Adjustments {
		if preset.Name == name {
			return preset, true
		}
	}
	return Preset{}, false
}
