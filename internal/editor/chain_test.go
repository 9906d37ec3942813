package editor

import (
	"testing"

	"github.com/darkroom-tools/darkroom/internal/display"
)

func art(name string) *Artifact {
	return NewArtifact(name, "image/png", []byte(name))
}

func TestVersionChainAppendUndoRedo(t *testing.T) {
	reg := display.NewRegistry()
	chain := NewVersionChain(reg, art("v0"))

	chain.Append(art("v1"))
	chain.Append(art("v2"))

	if chain.Len() != 3 || chain.Index() != 2 {
		t.Fatalf("len/idx = %d/%d, want 3/2", chain.Len(), chain.Index())
	}

	if !chain.Undo() || chain.Index() != 1 {
		t.Fatalf("undo: idx = %d, want 1", chain.Index())
	}
	if !chain.Redo() || chain.Index() != 2 {
		t.Fatalf("redo: idx = %d, want 2", chain.Index())
	}

	// At the tip, redo is a no-op; at the root, undo is a no-op.
	if chain.Redo() {
		t.Fatal("redo at tip should be a no-op")
	}
	chain.Undo()
	chain.Undo()
	if chain.Undo() {
		t.Fatal("undo at root should be a no-op")
	}

	orig, err := chain.Original()
	if err != nil {
		t.Fatalf("original: %v", err)
	}
	if orig.Name != "v0" {
		t.Fatalf("original = %s, want v0", orig.Name)
	}
}

func TestVersionChainCursorAlwaysValid(t *testing.T) {
	reg := display.NewRegistry()
	chain := NewVersionChain(reg, art("v0"))

	ops := []func(){
		func() { chain.Append(art("a")) },
		func() { chain.Undo() },
		func() { chain.Append(art("b")) },
		func() { chain.Undo() },
		func() { chain.Undo() },
		func() { chain.Redo() },
		func() { chain.Reset() },
		func() { chain.Append(art("c")) },
		func() { chain.Redo() },
	}
	for i, op := range ops {
		op()
		if chain.Index() < 0 || chain.Index() >= chain.Len() {
			t.Fatalf("op %d: idx %d out of range [0,%d)", i, chain.Index(), chain.Len())
		}
		if _, err := chain.Current(); err != nil {
			t.Fatalf("op %d: current: %v", i, err)
		}
	}
}

func TestVersionChainAppendTruncatesRedoBranch(t *testing.T) {
	reg := display.NewRegistry()
	chain := NewVersionChain(reg, art("v0"))
	chain.Append(art("v1"))
	chain.Append(art("v2"))

	chain.Undo()
	chain.Undo()
	chain.Append(art("v1b"))

	if chain.Len() != 2 {
		t.Fatalf("len after truncating append = %d, want 2", chain.Len())
	}
	if chain.Redo() {
		t.Fatal("redo should not reach the discarded branch")
	}
	cur, _ := chain.Current()
	if cur.Name != "v1b" {
		t.Fatalf("current = %s, want v1b", cur.Name)
	}
}

func TestVersionChainResetKeepsLength(t *testing.T) {
	reg := display.NewRegistry()
	chain := NewVersionChain(reg, art("v0"))
	chain.Append(art("v1"))
	chain.Append(art("v2"))

	if !chain.Reset() {
		t.Fatal("reset should report movement")
	}
	if chain.Len() != 3 || chain.Index() != 0 {
		t.Fatalf("len/idx after reset = %d/%d, want 3/0", chain.Len(), chain.Index())
	}
	cur, _ := chain.Current()
	if cur.Name != "v0" {
		t.Fatalf("current after reset = %s, want v0", cur.Name)
	}
	if chain.Reset() {
		t.Fatal("reset at root should be a no-op")
	}
}

func TestVersionChainRedoAfterReset(t *testing.T) {
	reg := display.NewRegistry()
	chain := NewVersionChain(reg, art("v0"))
	chain.Append(art("v1"))
	chain.Append(art("v2"))
	chain.Reset()

	// Reset only moves the cursor, so redo can walk back to the tip.
	chain.Redo()
	if !chain.Redo() {
		t.Fatal("second redo after reset should move")
	}
	cur, _ := chain.Current()
	if cur.Name != "v2" {
		t.Fatalf("current after redo = %s, want v2", cur.Name)
	}

	// Editing from the reset point discards the forward versions instead.
	chain.Reset()
	chain.Append(art("v1b"))
	if chain.CanRedo() {
		t.Fatal("append after reset must drop the redo branch")
	}
	if chain.Len() != 2 {
		t.Fatalf("len after append = %d, want 2", chain.Len())
	}
}

func TestVersionChainDisplayHandleLifecycle(t *testing.T) {
	reg := display.NewRegistry()
	chain := NewVersionChain(reg, art("v0"))

	chain.Append(art("v1"))
	chain.Undo()
	chain.Redo()
	chain.Reset()

	// Exactly one handle is ever live: the displayed version's.
	if reg.LiveCount() != 1 {
		t.Fatalf("live handles = %d, want 1", reg.LiveCount())
	}

	chain.Destroy()
	if reg.LiveCount() != 0 {
		t.Fatalf("live handles after destroy = %d, want 0", reg.LiveCount())
	}
	if reg.Acquired() != reg.Released() {
		t.Fatalf("acquired %d != released %d", reg.Acquired(), reg.Released())
	}
}
