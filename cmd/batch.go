package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/darkroom-tools/darkroom/internal/batch"
	"github.com/darkroom-tools/darkroom/internal/config"
	"github.com/darkroom-tools/darkroom/internal/display"
	"github.com/darkroom-tools/darkroom/internal/editor"
	"github.com/darkroom-tools/darkroom/internal/gemini"
	"github.com/darkroom-tools/darkroom/internal/generate"
)

// batchReport is the YAML run summary written next to the outputs.
type batchReport struct {
	Config  batchReportConfig `yaml:"config"`
	Results []batchReportItem `yaml:"results"`
}

type batchReportConfig struct {
	Kind      string `yaml:"kind"`
	Prompt    string `yaml:"prompt"`
	Timestamp string `yaml:"timestamp"`
}

type batchReportItem struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
	Error  string `yaml:"error,omitempty"`
	Output string `yaml:"output,omitempty"`
}

func newBatchCmd() *cobra.Command {
	var kind string
	var prompt string
	var preset string
	var model string
	var outDir string

	cmd := &cobra.Command{
		Use:   "batch [files...]",
		Short: "Apply a filter or adjustment to a batch of images",
		Long: `Processes the given image files sequentially through one bulk operation,
writing the edited images and a YAML run report to the output directory.

Each image is processed independently; one failure does not stop the rest.`,
		Example: `  # Apply a preset filter to a directory of photos
  darkroom batch --kind filter --preset Synthwave --out edited/ photos/*.jpg

  # Apply a custom adjustment prompt
  darkroom batch --kind adjust --prompt "warmer golden-hour lighting" --out edited/ a.jpg b.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if preset != "" {
				p, ok := config.Default().Find(preset)
				if !ok {
					return fmt.Errorf("unknown preset %q", preset)
				}
				prompt = p.Prompt
			}
			if err := generate.ValidatePrompt(prompt); err != nil {
				return err
			}
			if kind != "filter" && kind != "adjust" {
				return fmt.Errorf("--kind must be filter or adjust, got %q", kind)
			}

			uploads := make([]*editor.Artifact, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				uploads = append(uploads, editor.NewArtifact(filepath.Base(path), mimeForPath(path), data))
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			return runBatch(cmd.Context(), gemini.New(model), kind, prompt, uploads, outDir)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "filter", "Bulk operation: filter or adjust")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Prompt describing the edit")
	cmd.Flags().StringVar(&preset, "preset", "", "Name of a built-in preset to use instead of --prompt")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Gemini model to use for edits")
	cmd.Flags().StringVarP(&outDir, "out", "o", "edited", "Directory to write edited images and the report to")

	return cmd
}

func runBatch(ctx context.Context, provider generate.Provider, kind, prompt string, uploads []*editor.Artifact, outDir string) error {
	slog.Info("Starting batch run", "kind", kind, "items", len(uploads))

	registry := display.NewRegistry()
	set := batch.NewJobSet(registry, uploads)
	defer set.Destroy()

	apply := func(ctx context.Context, original *editor.Artifact) (*editor.Artifact, error) {
		if kind == "adjust" {
			return provider.AdjustImage(ctx, original, prompt)
		}
		return provider.FilterImage(ctx, original, prompt)
	}

	var processor batch.Processor
	summary := processor.Run(ctx, set, apply)

	report := batchReport{
		Config: batchReportConfig{
			Kind:      kind,
			Prompt:    prompt,
			Timestamp: time.Now().Format("2006-01-02_15-04-05"),
		},
	}
	for _, job := range set.Jobs() {
		item := batchReportItem{
			ID:     job.ID,
			Name:   job.Name,
			Status: string(job.Status),
			Error:  job.Err,
		}
		if job.Processed != nil {
			outPath := filepath.Join(outDir, fmt.Sprintf("edited-%d-%s", job.ID, job.Name))
			if err := os.WriteFile(outPath, job.Processed.Data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			item.Output = outPath
		}
		report.Results = append(report.Results, item)
	}

	reportPath := filepath.Join(outDir, "report.yaml")
	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(reportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	slog.Info("Batch run finished", "done", summary.Done, "failed", summary.Failed, "report", reportPath)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d items failed; see %s", summary.Failed, len(uploads), reportPath)
	}
	return nil
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
