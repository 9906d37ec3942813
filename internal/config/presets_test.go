package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPresets(t *testing.T) {
	content := `filters:
  - name: Noir
    prompt: Convert to high-contrast black and white
adjustments:
  - name: Cooler
    prompt: Shift the color temperature cooler
`
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write presets: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(p.Filters) != 1 || p.Filters[0].Name != "Noir" {
		t.Fatalf("filters = %+v", p.Filters)
	}

	preset, ok := p.Find("Cooler")
	if !ok || preset.Prompt == "" {
		t.Fatalf("Find(Cooler) = %+v, %v", preset, ok)
	}
	if _, ok := p.Find("Missing"); ok {
		t.Fatal("Find should miss unknown presets")
	}
}

func TestLoadRejectsEmptyPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("filters: []\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty presets file")
	}
}

func TestDefaultPresetsPresent(t *testing.T) {
	p := Default()
	if len(p.Filters) == 0 || len(p.Adjustments) == 0 {
		t.Fatal("default presets must cover both groups")
	}
}
