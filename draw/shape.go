package draw

import (
	"image"
	"image/color"
)

// Line draws a line between two points, both included.
func Line(dst Image, a, b image.Point, c color.Color) {
	var (
		dx = abs(b.X - a.X)
		dy = -abs(b.Y - a.Y)
		sx = sign(b.X - a.X)
		sy = sign(b.Y - a.Y)
		e  = dx + dy
	)
	for p := a; ; {
		dst.Set(p.X, p.Y, c)
		if p == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			p.X += sx
		}
		if e2 <= dx {
			e += dx
			p.Y += sy
		}
	}
}

// HorizontalLine draws a line between (x,y) and (x+w-1,y).
func HorizontalLine(dst Image, x, y, w int, c color.Color) {
	if w > 0 {
		Box(dst, image.Rect(x, y, x+w, y+1), c)
	}
}

// VerticalLine draws a line between (x,y) and (x,y+h-1).
func VerticalLine(dst Image, x, y, h int, c color.Color) {
	if h > 0 {
		Box(dst, image.Rect(x, y, x+1, y+h), c)
	}
}

// Rectangle draws the outline of rect.
func Rectangle(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	w, h := rect.Dx(), rect.Dy()
	HorizontalLine(dst, rect.Min.X, rect.Min.Y, w, c)
	HorizontalLine(dst, rect.Min.X, rect.Max.Y-1, w, c)
	VerticalLine(dst, rect.Min.X, rect.Min.Y, h, c)
	VerticalLine(dst, rect.Max.X-1, rect.Min.Y, h, c)
}

// RoundedRectangle draws the outline of rect with radius pixels rounded corners.
func RoundedRectangle(dst Image, rect image.Rectangle, radius int, c color.Color) {
	rect = rect.Canon()
	r := clampRadius(rect, radius)
	if r == 0 {
		Rectangle(dst, rect, c)
		return
	}
	var (
		x = rect.Min.X
		y = rect.Min.Y
		w = rect.Dx()
		h = rect.Dy()
	)
	HorizontalLine(dst, x+r, y, w-2*r, c)
	HorizontalLine(dst, x+r, y+h-1, w-2*r, c)
	VerticalLine(dst, x, y+r, h-2*r, c)
	VerticalLine(dst, x+w-1, y+r, h-2*r, c)
	corner(dst, x+r, y+r, r, topLeft, c)
	corner(dst, x+w-r-1, y+r, r, topRight, c)
	corner(dst, x+w-r-1, y+h-r-1, r, bottomRight, c)
	corner(dst, x+r, y+h-r-1, r, bottomLeft, c)
}

// Box draws a filled rectangle.
func Box(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Canon()
	if fillRect(dst, rect, c) {
		return
	}
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, y, c)
		}
	}
}

// RoundedBox draws a filled rectangle with radius pixels rounded corners.
func RoundedBox(dst Image, rect image.Rectangle, radius int, c color.Color) {
	rect = rect.Canon()
	r := clampRadius(rect, radius)
	if r == 0 {
		Box(dst, rect, c)
		return
	}
	var (
		x = rect.Min.X
		y = rect.Min.Y
		w = rect.Dx()
		h = rect.Dy()
	)
	// Middle band, then the top and bottom caps row by row.
	Box(dst, image.Rect(x, y+r, x+w, y+h-r), c)
	var (
		f    = 1 - r
		ddFx = 1
		ddFy = -2 * r
		cx   = 0
		cy   = r
	)
	span := func(dx, dy int) {
		HorizontalLine(dst, x+r-dx, y+r-dy, w-2*r+2*dx, c)
		HorizontalLine(dst, x+r-dx, y+h-r-1+dy, w-2*r+2*dx, c)
	}
	for cx < cy {
		if f >= 0 {
			cy--
			ddFy += 2
			f += ddFy
		}
		cx++
		ddFx += 2
		f += ddFx
		span(cx, cy)
		span(cy, cx)
	}
}

// Corner quadrants.
const (
	topLeft = 1 << iota
	topRight
	bottomRight
	bottomLeft
)

// corner draws a quarter circle of radius around (x0, y0) with the midpoint algorithm.
func corner(dst Image, x0, y0, radius, quadrant int, c color.Color) {
	var (
		f    = 1 - radius
		ddFx = 1
		ddFy = -2 * radius
		x    = 0
		y    = radius
	)
	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}
		x++
		ddFx += 2
		f += ddFx

		if quadrant&bottomRight != 0 {
			dst.Set(x0+x, y0+y, c)
			dst.Set(x0+y, y0+x, c)
		}
		if quadrant&topRight != 0 {
			dst.Set(x0+x, y0-y, c)
			dst.Set(x0+y, y0-x, c)
		}
		if quadrant&bottomLeft != 0 {
			dst.Set(x0-y, y0+x, c)
			dst.Set(x0-x, y0+y, c)
		}
		if quadrant&topLeft != 0 {
			dst.Set(x0-y, y0-x, c)
			dst.Set(x0-x, y0-y, c)
		}
	}
}

func clampRadius(rect image.Rectangle, radius int) int {
	return max(0, min(radius, (rect.Dx()-1)/2, (rect.Dy()-1)/2))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
