package editor

import "sync/atomic"

var nextArtifactID atomic.Uint64

// Artifact is an immutable named image blob. Every edit produces a new
// Artifact; the bytes of an existing one are never rewritten.
type Artifact struct {
	ID   uint64
	Name string
	MIME string
	Data []byte
}

// NewArtifact wraps image bytes in a fresh Artifact with a unique id.
func NewArtifact(name, mime string, data []byte) *Artifact {
	return &Artifact{
		ID:   nextArtifactID.Add(1),
		Name: name,
		MIME: mime,
		Data: data,
	}
}

// Point is a pixel coordinate in some image's coordinate space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle selects no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}
