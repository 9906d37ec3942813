package editor

import (
	"log/slog"

	"github.com/darkroom-tools/darkroom/internal/display"
)

// VersionChain is a linear, branch-free edit history for one image. Index 0
// always holds the original upload; the cursor marks the currently displayed
// version. Appending past the cursor discards any redo suffix, matching
// standard editor undo/redo semantics.
//
// The chain owns the display handle for whichever artifact the cursor points
// at and swaps it on every cursor move.
type VersionChain struct {
	registry *display.Registry
	versions []*Artifact
	idx      int
	handle   *display.Handle
}

// NewVersionChain seeds a chain with the original artifact and issues its
// display handle.
func NewVersionChain(registry *display.Registry, original *Artifact) *VersionChain {
	c := &VersionChain{
		registry: registry,
		versions: []*Artifact{original},
	}
	c.handle = registry.Acquire(original.ID)
	return c
}

// Append truncates any redo suffix beyond the cursor, pushes the artifact,
// and moves the cursor onto it. The truncated versions are unrecoverable.
func (c *VersionChain) Append(a *Artifact) {
	if dropped := len(c.versions) - (c.idx + 1); dropped > 0 {
		slog.Debug("Discarding redo history", "versions", dropped)
	}
	c.versions = append(c.versions[:c.idx+1], a)
	c.idx = len(c.versions) - 1
	c.swapHandle()
}

// Undo moves the cursor one version back. It reports whether it moved.
func (c *VersionChain) Undo() bool {
	if c.idx == 0 {
		return false
	}
	c.idx--
	c.swapHandle()
	return true
}

// Redo moves the cursor one version forward. It reports whether it moved.
func (c *VersionChain) Redo() bool {
	if c.idx >= len(c.versions)-1 {
		return false
	}
	c.idx++
	c.swapHandle()
	return true
}

// Reset moves the cursor back to the original without truncating the chain.
// The versions ahead of the cursor stay reachable by Redo until the next
// Append discards them.
func (c *VersionChain) Reset() bool {
	if c.idx == 0 {
		return false
	}
	c.idx = 0
	c.swapHandle()
	return true
}

// Current returns the artifact under the cursor.
func (c *VersionChain) Current() (*Artifact, error) {
	if len(c.versions) == 0 {
		return nil, ErrEmptyChain
	}
	return c.versions[c.idx], nil
}

// Original returns the first artifact ever appended.
func (c *VersionChain) Original() (*Artifact, error) {
	if len(c.versions) == 0 {
		return nil, ErrEmptyChain
	}
	return c.versions[0], nil
}

func (c *VersionChain) Len() int      { return len(c.versions) }
func (c *VersionChain) Index() int    { return c.idx }
func (c *VersionChain) CanUndo() bool { return c.idx > 0 }
func (c *VersionChain) CanRedo() bool { return c.idx < len(c.versions)-1 }

// Destroy releases the chain's display handle. The chain must not be used
// afterwards.
func (c *VersionChain) Destroy() {
	if err := c.handle.Release(); err != nil {
		slog.Error("Failed to release chain display handle", "err", err)
	}
	c.handle = nil
	c.versions = nil
	c.idx = 0
}

func (c *VersionChain) swapHandle() {
	if err := c.handle.Release(); err != nil {
		slog.Error("Failed to release superseded display handle", "err", err)
	}
	c.handle = c.registry.Acquire(c.versions[c.idx].ID)
}
