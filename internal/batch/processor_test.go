package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/darkroom-tools/darkroom/internal/display"
	"github.com/darkroom-tools/darkroom/internal/editor"
)

func TestRunPartialFailure(t *testing.T) {
	reg := display.NewRegistry()
	set := NewJobSet(reg, originals("0.png", "1.png", "2.png", "3.png", "4.png"))

	gen := func(ctx context.Context, original *editor.Artifact) (*editor.Artifact, error) {
		if original.Name == "2.png" {
			return nil, &editor.GenerationError{Message: "content blocked"}
		}
		return editor.NewArtifact("out-"+original.Name, "image/png", []byte("out")), nil
	}

	var p Processor
	summary := p.Run(context.Background(), set, gen)

	if summary.Done != 4 || summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 4 done / 1 failed", summary)
	}
	if !set.Settled() {
		t.Fatal("run should settle every job")
	}
	for _, job := range set.Jobs() {
		if job.ID == 2 {
			if job.Status != StatusError || job.Err == "" || job.Processed != nil {
				t.Fatalf("job 2 = %+v, want error with message", job)
			}
			continue
		}
		if job.Status != StatusDone || job.Processed == nil {
			t.Fatalf("job %d = %+v, want done", job.ID, job)
		}
	}
}

func TestRunIsSequentialInIDOrder(t *testing.T) {
	reg := display.NewRegistry()
	set := NewJobSet(reg, originals("a.png", "b.png", "c.png"))

	var order []string
	var inFlight int
	gen := func(ctx context.Context, original *editor.Artifact) (*editor.Artifact, error) {
		inFlight++
		if inFlight != 1 {
			t.Fatalf("%d generator calls in flight, want 1", inFlight)
		}
		order = append(order, original.Name)
		inFlight--
		return editor.NewArtifact("out-"+original.Name, "image/png", nil), nil
	}

	var progress []string
	p := Processor{OnProgress: func(pr Progress) {
		progress = append(progress, fmt.Sprintf("%d/%d:%s", pr.Position, pr.Total, pr.Name))
	}}
	p.Run(context.Background(), set, gen)

	want := []string{"a.png", "b.png", "c.png"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if len(progress) != 3 || progress[0] != "1/3:a.png" || progress[2] != "3/3:c.png" {
		t.Fatalf("progress = %v", progress)
	}
}

func TestRunAlwaysUsesOriginalArtifact(t *testing.T) {
	reg := display.NewRegistry()
	set := NewJobSet(reg, originals("a.png"))

	var inputs []string
	gen := func(ctx context.Context, original *editor.Artifact) (*editor.Artifact, error) {
		inputs = append(inputs, original.Name)
		return editor.NewArtifact("processed.png", "image/png", nil), nil
	}

	var p Processor
	p.Run(context.Background(), set, gen)
	p.Run(context.Background(), set, gen)

	// Bulk operations are relative to the unedited source; a second run
	// must not compound on the first run's output.
	for _, in := range inputs {
		if in != "a.png" {
			t.Fatalf("generator saw %s, want the original a.png", in)
		}
	}
}

func TestRunMarksAllProcessingBeforeFirstCall(t *testing.T) {
	reg := display.NewRegistry()
	set := NewJobSet(reg, originals("a.png", "b.png", "c.png"))

	checked := false
	gen := func(ctx context.Context, original *editor.Artifact) (*editor.Artifact, error) {
		if !checked {
			checked = true
			for _, job := range set.Jobs() {
				if job.Status != StatusProcessing && job.Status != StatusDone {
					t.Fatalf("job %d status = %s during first call, want processing", job.ID, job.Status)
				}
			}
		}
		return editor.NewArtifact("out.png", "image/png", nil), nil
	}

	var p Processor
	p.Run(context.Background(), set, gen)
	if !checked {
		t.Fatal("generator never called")
	}
}

func TestRunStopsWhenSetDestroyed(t *testing.T) {
	reg := display.NewRegistry()
	set := NewJobSet(reg, originals("a.png", "b.png", "c.png"))

	calls := 0
	gen := func(ctx context.Context, original *editor.Artifact) (*editor.Artifact, error) {
		calls++
		// Simulates a start-over arriving while the call is outstanding.
		set.Destroy()
		return editor.NewArtifact("out.png", "image/png", nil), nil
	}

	var p Processor
	p.Run(context.Background(), set, gen)

	if calls != 1 {
		t.Fatalf("generator called %d times after teardown, want 1", calls)
	}
	if reg.LiveCount() != 0 {
		t.Fatalf("live handles = %d, want 0", reg.LiveCount())
	}
}
