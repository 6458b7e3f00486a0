// Package panel contains drivers for small dot-matrix display controllers.
//
// Every driver implements [Display], a pixel addressable surface that is also an image/draw
// destination. Drivers either write every pixel to the controller immediately (unbuffered) or
// keep a local mirror that is pushed in bulk by [Display.Flush] and [Display.ClearColor]
// (buffered).
package panel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"

	"periph.io/x/conn/v3/gpio"
)

var debug bool

func init() {
	debug = os.Getenv("PANEL_DEBUG") != ""
}

func debugf(format string, v ...any) {
	if debug {
		log.Printf(format, v...)
	}
}

// Errors
var (
	ErrBounds   = errors.New("panel: out of display bounds")
	ErrGeometry = errors.New("panel: invalid geometry")
	ErrClosed   = errors.New("panel: display is closed")
)

// Pixel is a controller native pixel value: a single bit for monochrome controllers, a packed
// RGB565 value for 16-bit color controllers.
type Pixel uint16

// Geometry describes the panel dimensions and the offset of the panel inside the controller
// memory.
type Geometry struct {
	Width   uint16
	Height  uint16
	XOffset uint16
	YOffset uint16
}

// Predefined geometries.
var (
	SSD1306_128x64 = Geometry{Width: 128, Height: 64}
	SSD1306_128x32 = Geometry{Width: 128, Height: 32}
	ST7735_128x160 = Geometry{Width: 128, Height: 160}
	ST7735_80x160  = Geometry{Width: 80, Height: 160, XOffset: 26, YOffset: 1}
)

// Bounds is the panel bounding box, without offsets.
func (g Geometry) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(g.Width), int(g.Height))
}

// Contains reports whether (x, y) is on the panel.
func (g Geometry) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < int(g.Width) && y < int(g.Height)
}

func (g Geometry) String() string {
	if g.XOffset == 0 && g.YOffset == 0 {
		return fmt.Sprintf("%dx%d", g.Width, g.Height)
	}
	return fmt.Sprintf("%dx%d+%d+%d", g.Width, g.Height, g.XOffset, g.YOffset)
}

// CursorID selects one of the named cursors of a display.
type CursorID uint8

// WriteCursor is maintained by the display, it follows the most recent pixel write.
const WriteCursor CursorID = 0

// MaxCursors is the number of named cursors per display.
const MaxCursors = 8

// Cursor is a position on the panel.
type Cursor struct {
	X, Y uint16
}

// Display is a pixel addressable panel.
type Display interface {
	draw.Image
	fmt.Stringer

	// Geometry of the panel.
	Geometry() Geometry

	// SetPixel writes a native pixel at (x, y).
	SetPixel(x, y int, p Pixel) error

	// Clear the display to the configured background color.
	Clear() error

	// ClearColor clears the display to c. Use it over per pixel clearing, it issues a single
	// bulk transfer.
	ClearColor(c color.Color) error

	// ColorToPixel converts c to the native pixel encoding.
	ColorToPixel(c color.Color) Pixel

	// Cursor returns a named cursor.
	Cursor(id CursorID) Cursor

	// SetCursor updates a named cursor.
	SetCursor(id CursorID, c Cursor)

	// Flush pushes the local mirror to the controller. It is a no-op for unbuffered displays.
	Flush() error

	// Show toggles the display on or off.
	Show(bool) error

	// SetContrast adjusts the contrast level.
	SetContrast(level uint8) error

	// Err returns the first error encountered by Set.
	Err() error

	// Close turns the display off and releases the connection.
	Close() error
}

// BlockWriter is implemented by displays that can write a rectangle of pixels in one
// controller transaction.
type BlockWriter interface {
	// SetPixels writes pix, in row-major order, to r.
	SetPixels(r image.Rectangle, pix []Pixel) error

	// FillRect fills r with p.
	FillRect(r image.Rectangle, p Pixel) error
}

// Config is the display configuration.
type Config struct {
	// Geometry of the panel, a zero value selects the controller default.
	Geometry Geometry

	// Buffered keeps a local mirror of the panel, pushed by Flush.
	Buffered bool

	// InvertColors inverts every native pixel, for panels wired with inverted colors.
	InvertColors bool

	// Background is the color used by Clear, defaults to black. Monochrome controllers light
	// the pixel for colors at or above 50% luminance.
	Background color.Color

	// Backlight pin.
	Backlight gpio.PinOut
}

type baseDisplay struct {
	c          Conn
	geometry   Geometry
	background color.Color
	cursors    [MaxCursors]Cursor
	err        error
	closed     bool
}

func (d *baseDisplay) init(c Conn, g Geometry, config *Config) {
	d.c = c
	d.geometry = g
	d.background = config.Background
	if d.background == nil {
		d.background = color.Black
	}
}

func (d *baseDisplay) Bounds() image.Rectangle {
	return d.geometry.Bounds()
}

func (d *baseDisplay) Geometry() Geometry {
	return d.geometry
}

func (d *baseDisplay) Cursor(id CursorID) Cursor {
	if id >= MaxCursors {
		return Cursor{}
	}
	return d.cursors[id]
}

func (d *baseDisplay) SetCursor(id CursorID, c Cursor) {
	if id < MaxCursors {
		d.cursors[id] = c
	}
}

func (d *baseDisplay) Err() error {
	return d.err
}

// keep records the first error returned to Set.
func (d *baseDisplay) keep(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

func (d *baseDisplay) check(x, y int) error {
	if d.closed {
		return ErrClosed
	}
	if !d.geometry.Contains(x, y) {
		return fmt.Errorf("%w: (%d,%d) not in %s", ErrBounds, x, y, d.geometry)
	}
	return nil
}

func (d *baseDisplay) checkRect(r image.Rectangle) error {
	if d.closed {
		return ErrClosed
	}
	if r.Empty() || !r.In(d.Bounds()) {
		return fmt.Errorf("%w: %s not in %s", ErrBounds, r, d.geometry)
	}
	return nil
}

func (d *baseDisplay) moved(x, y int) {
	d.cursors[WriteCursor] = Cursor{X: uint16(x), Y: uint16(y)}
}

func (d *baseDisplay) command(command byte, args ...byte) error {
	return d.c.Command(command, args...)
}

func (d *baseDisplay) data(data ...byte) error {
	return d.c.Data(data...)
}

// close turns the display off with the provided command and releases the connection.
func (d *baseDisplay) close(off func() error) error {
	if d.closed {
		return nil
	}
	err := off()
	d.closed = true
	if cerr := d.c.Close(); err == nil {
		err = cerr
	}
	return err
}
