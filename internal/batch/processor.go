package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/darkroom-tools/darkroom/internal/editor"
)

// Generator produces an edited artifact from a job's original. It must not
// mutate its input.
type Generator func(ctx context.Context, original *editor.Artifact) (*editor.Artifact, error)

// Progress describes the item currently being processed.
type Progress struct {
	JobID    int    `json:"job_id"`
	Name     string `json:"name"`
	Position int    `json:"position"` // 1-based
	Total    int    `json:"total"`
}

// Summary aggregates one run's outcome.
type Summary struct {
	Done   int
	Failed int
}

// Processor drives a JobSet through one bulk operation. Jobs run strictly
// sequentially in ascending id order: one outstanding generator call at a
// time bounds load on the external service and keeps progress reporting
// unambiguous. Do not parallelize this loop without revisiting the
// collaborator's rate limits.
type Processor struct {
	// OnProgress, when set, is called before each item starts.
	OnProgress func(Progress)
}

// Run applies the generator to every job's original artifact. Each call is
// always made against the unedited original, never a prior run's processed
// result, so re-running a filter after an adjustment does not compound.
//
// One item's failure never aborts the batch; the run completes with a mix of
// done and error statuses. If the set is destroyed mid-run the remaining
// items are skipped and in-flight results discarded.
func (p *Processor) Run(ctx context.Context, set *JobSet, generate Generator) Summary {
	set.MarkAllProcessing()

	total := set.Len()
	var summary Summary
	for i := 0; i < total; i++ {
		if set.Destroyed() {
			slog.Debug("Job set destroyed mid-run, abandoning remaining items", "remaining", total-i)
			break
		}

		job, ok := set.Job(i)
		if !ok {
			continue
		}
		if p.OnProgress != nil {
			p.OnProgress(Progress{JobID: job.ID, Name: job.Name, Position: i + 1, Total: total})
		}
		slog.Info("Processing batch item", "job_id", job.ID, "name", job.Name, "progress", fmt.Sprintf("%d/%d", i+1, total))

		result, err := generate(ctx, job.Original)
		if err != nil {
			slog.Error("Batch item failed", "job_id", job.ID, "name", job.Name, "err", err)
			set.Fail(job.ID, err.Error())
			summary.Failed++
			continue
		}

		set.Complete(job.ID, result)
		summary.Done++
	}

	slog.Info("Batch run complete", "done", summary.Done, "failed", summary.Failed)
	return summary
}
