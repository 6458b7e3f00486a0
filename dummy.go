package panel

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/conn/v3/gpio"
)

// Dummy is a display without hardware: every operation succeeds and nothing is drawn. The
// write cursor is maintained like on a real display.
type Dummy struct {
	baseDisplay
}

// NewDummy returns a dummy display with geometry g.
func NewDummy(g Geometry) *Dummy {
	d := new(Dummy)
	d.baseDisplay.init(dummyConn{}, g, &Config{})
	return d
}

func (d *Dummy) String() string {
	return fmt.Sprintf("dummy %s", d.geometry)
}

func (d *Dummy) ColorModel() color.Model {
	return color.RGBAModel
}

func (d *Dummy) At(x, y int) color.Color {
	return color.Transparent
}

func (d *Dummy) Set(x, y int, c color.Color) {
	if d.geometry.Contains(x, y) {
		d.keep(d.SetPixel(x, y, 0))
	}
}

func (d *Dummy) SetPixel(x, y int, _ Pixel) error {
	if err := d.check(x, y); err != nil {
		return err
	}
	d.moved(x, y)
	return nil
}

func (d *Dummy) SetPixels(r image.Rectangle, _ []Pixel) error {
	if err := d.checkRect(r); err != nil {
		return err
	}
	d.moved(r.Max.X-1, r.Max.Y-1)
	return nil
}

func (d *Dummy) FillRect(r image.Rectangle, p Pixel) error {
	return d.SetPixels(r, nil)
}

// ColorToPixel always returns 0.
func (d *Dummy) ColorToPixel(color.Color) Pixel {
	return 0
}

func (d *Dummy) Clear() error {
	return d.ClearColor(d.background)
}

func (d *Dummy) ClearColor(color.Color) error {
	if d.closed {
		return ErrClosed
	}
	d.moved(0, 0)
	return nil
}

func (d *Dummy) Flush() error { return nil }

func (d *Dummy) Show(bool) error {
	if d.closed {
		return ErrClosed
	}
	return nil
}

func (d *Dummy) SetContrast(level uint8) error {
	if d.closed {
		return ErrClosed
	}
	return nil
}

func (d *Dummy) Close() error {
	return d.close(func() error { return nil })
}

// dummyConn discards everything.
type dummyConn struct{}

func (dummyConn) String() string              { return "dummy" }
func (dummyConn) Close() error                { return nil }
func (dummyConn) Reset(gpio.Level) error      { return nil }
func (dummyConn) Command(byte, ...byte) error { return nil }
func (dummyConn) Data(...byte) error          { return nil }

var (
	_ Display     = (*Dummy)(nil)
	_ BlockWriter = (*Dummy)(nil)
	_ Conn        = dummyConn{}
)
