package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"camwatch/internal/event"
)

const (
	labelPadding    = 3
	tagMarkerSize   = 8
	tagMarkerInset  = 4
	labelBackground = 190 // alpha of the label background fill
)

// clampBox restricts a bounding box to the raster bounds so overlay
// drawing never indexes outside the surface.
func clampBox(b event.BoundingBox, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
	return r.Intersect(bounds)
}

// drawRectOutline draws a rectangle outline of the given thickness.
func drawRectOutline(dst *image.RGBA, r image.Rectangle, col color.RGBA, thickness int) {
	if r.Empty() {
		return
	}

	src := &image.Uniform{C: col}
	// top, bottom
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
	// left, right
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
}

// drawTagMarker draws a small filled indicator near the top edge of the
// box in the tag's color.
func drawTagMarker(dst *image.RGBA, box image.Rectangle, col color.RGBA) {
	if box.Empty() {
		return
	}

	marker := image.Rect(
		box.Min.X+tagMarkerInset,
		box.Min.Y+tagMarkerInset,
		box.Min.X+tagMarkerInset+tagMarkerSize,
		box.Min.Y+tagMarkerInset+tagMarkerSize,
	).Intersect(dst.Bounds())

	draw.Draw(dst, marker, &image.Uniform{C: col}, image.Point{}, draw.Src)
}

// drawLabel draws the label text below the box's top-left corner on a
// filled background sized to the measured text width.
func drawLabel(dst *image.RGBA, box image.Rectangle, label string, col color.RGBA) {
	if box.Empty() || label == "" {
		return
	}

	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()
	height := face.Metrics().Height.Ceil()

	// Background sits just above the box when there is room, otherwise
	// inside the top edge.
	bgTop := box.Min.Y - height - 2*labelPadding
	if bgTop < dst.Bounds().Min.Y {
		bgTop = box.Min.Y
	}
	bg := image.Rect(
		box.Min.X,
		bgTop,
		box.Min.X+width+2*labelPadding,
		bgTop+height+2*labelPadding,
	).Intersect(dst.Bounds())

	fill := color.RGBA{R: col.R, G: col.G, B: col.B, A: labelBackground}
	draw.Draw(dst, bg, &image.Uniform{C: fill}, image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  dst,
		Src:  &image.Uniform{C: colorLabelText},
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(box.Min.X + labelPadding),
			Y: fixed.I(bgTop + labelPadding + face.Metrics().Ascent.Ceil()),
		},
	}
	d.DrawString(label)
}
