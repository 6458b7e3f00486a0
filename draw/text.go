package draw

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Text draws s in the 7x13 bitmap font with its baseline at dot. It returns the dot after the
// last glyph.
func Text(dst Image, dot image.Point, s string, c color.Color) image.Point {
	return TextFace(dst, basicfont.Face7x13, dot, s, c)
}

// TextFace draws s in face with its baseline at dot. It returns the dot after the last glyph.
func TextFace(dst Image, face font.Face, dot image.Point, s string, c color.Color) image.Point {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(s)
	return image.Pt(d.Dot.X.Round(), d.Dot.Y.Round())
}

// Measure returns the advance of s in face, in pixels.
func Measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

var goRegular = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// NewFace parses a TrueType font and returns a face of size points at 72 DPI. A nil ttf
// selects Go Regular.
func NewFace(ttf []byte, size float64) (font.Face, error) {
	var (
		f   *truetype.Font
		err error
	)
	if ttf == nil {
		f, err = goRegular()
	} else {
		f, err = truetype.Parse(ttf)
	}
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
