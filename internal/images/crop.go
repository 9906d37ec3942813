package images

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/darkroom-tools/darkroom/internal/editor"
)

// Dimensions probes the native width and height of an encoded image.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// ToNative converts a point in display (rendered) coordinates to the
// artifact's native pixel space. Callers pass the rendered size explicitly;
// the scale is never read from ambient display state.
func ToNative(p editor.Point, rendered, native editor.Size) editor.Point {
	if rendered.Width <= 0 || rendered.Height <= 0 {
		return p
	}
	return editor.Point{
		X: p.X * native.Width / rendered.Width,
		Y: p.Y * native.Height / rendered.Height,
	}
}

// toNativeRect maps a display-space rectangle to native pixels, clamped to
// the image bounds.
func toNativeRect(r editor.Rect, rendered, native editor.Size) image.Rectangle {
	tl := ToNative(editor.Point{X: r.X, Y: r.Y}, rendered, native)
	br := ToNative(editor.Point{X: r.X + r.Width, Y: r.Y + r.Height}, rendered, native)
	rect := image.Rect(tl.X, tl.Y, br.X, br.Y)
	return rect.Intersect(image.Rect(0, 0, native.Width, native.Height))
}

// Crop cuts the selected display-space rectangle out of the artifact at
// native resolution and encodes a new artifact in the source format. An empty
// rectangle fails with ErrNoCropSelected.
func Crop(a *editor.Artifact, sel editor.Rect, rendered editor.Size) (*editor.Artifact, error) {
	if sel.Empty() {
		return nil, editor.ErrNoCropSelected
	}

	src, format, err := image.Decode(bytes.NewReader(a.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	native := editor.Size{Width: bounds.Dx(), Height: bounds.Dy()}
	rect := toNativeRect(sel, rendered, native)
	if rect.Empty() {
		return nil, editor.ErrNoCropSelected
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min.Add(bounds.Min), draw.Src)

	var buf bytes.Buffer
	mime := a.MIME
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, nil)
	default:
		mime = "image/png"
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return editor.NewArtifact("cropped-"+a.Name, mime, buf.Bytes()), nil
}
