// Package preview renders images to a terminal using ANSI 256 color codes.
//
// Useful to look at a frame while the panel is not wired up yet.
package preview

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for a preview.
type Opts struct {
	// Writer defaults to a colorable stdout.
	Writer io.Writer

	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
}

// Preview writes images to the console, one block per pixel.
type Preview struct {
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
}

// New returns a Preview, opts may be nil.
func New(opts *Opts) *Preview {
	if opts == nil {
		opts = new(Opts)
	}
	p := &Preview{w: opts.Writer, palette: *ansi256.Default}
	if p.w == nil {
		p.w = colorable.NewColorableStdout()
	}
	if opts.Palette != nil {
		p.palette = *opts.Palette
	}
	return p
}

func (p *Preview) String() string {
	return "preview"
}

// Render writes every row of img followed by a reset and a newline.
func (p *Preview) Render(img image.Image) error {
	p.buf.Reset()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 0xff
			_, _ = p.buf.WriteString(p.palette.Block(c))
		}
		_, _ = p.buf.WriteString("\033[0m\n")
	}
	_, err := p.buf.WriteTo(p.w)
	return err
}
