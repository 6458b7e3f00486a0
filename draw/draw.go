// Package draw contains drawing primitives for panel displays and other image/draw
// destinations.
//
// Where the destination offers a bulk operation, such as [panel.Display.ClearColor] or
// [panel.BlockWriter.FillRect], the primitives use it instead of setting pixel by pixel.
package draw

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/BeatGlow/panel"
)

// Image is an alias for [image/draw.Image].
type Image = draw.Image

// Op is an alias for image/draw.Op
type Op = draw.Op

const (
	// Over specifies ``(src in mask) over dst''.
	Over Op = draw.Over

	// Src specifies ``src in mask''.
	Src Op = draw.Src
)

// Draw calls [DrawMask] with a nil mask.
func Draw(dst Image, r image.Rectangle, src image.Image, sp image.Point, op Op) {
	DrawMask(dst, r, src, sp, nil, image.Point{}, op)
}

// DrawMask aligns r.Min in dst with sp in src and mp in mask and then replaces the rectangle r
// in dst with the result of a Porter-Duff composition. A nil mask is treated as opaque.
//
// Uniform sources drawn with Src onto a block writer are sent as a single fill.
func DrawMask(dst Image, r image.Rectangle, src image.Image, sp image.Point, mask image.Image, mp image.Point, op Op) {
	if u, ok := src.(*image.Uniform); ok && mask == nil && op == Src {
		if fillRect(dst, r, u.C) {
			return
		}
	}
	draw.DrawMask(dst, r, src, sp, mask, mp, op)
}

// clearer is implemented by displays with a fast clear.
type clearer interface {
	ClearColor(color.Color) error
}

// Fill the whole of dst with c.
func Fill(dst Image, c color.Color) error {
	if d, ok := dst.(clearer); ok {
		return d.ClearColor(c)
	}
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, c)
		}
	}
	return nil
}

// fillRect uses the block writer of a display, it returns false if dst doesn't have one.
func fillRect(dst Image, r image.Rectangle, c color.Color) bool {
	d, ok := dst.(panel.Display)
	if !ok {
		return false
	}
	w, ok := dst.(panel.BlockWriter)
	if !ok {
		return false
	}
	if r = r.Intersect(d.Bounds()); r.Empty() {
		return true
	}
	if err := w.FillRect(r, d.ColorToPixel(c)); err != nil {
		// Fall back to per pixel writes, those record the error in the display.
		return false
	}
	return true
}
