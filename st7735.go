package panel

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/panel/pixel"
)

const (
	st7735MaxWidth  = 132
	st7735MaxHeight = 162
)

// Registers (from st7735.pdf).
const (
	st7735SWRESET = 0x01
	st7735SLPOUT  = 0x11
	st7735NORON   = 0x13
	st7735INVOFF  = 0x20
	st7735DISPOFF = 0x28
	st7735DISPON  = 0x29
	st7735CASET   = 0x2A
	st7735RASET   = 0x2B
	st7735RAMWR   = 0x2C
	st7735MADCTL  = 0x36
	st7735COLMOD  = 0x3A
	st7735FRMCTR1 = 0xB1
	st7735FRMCTR2 = 0xB2
	st7735FRMCTR3 = 0xB3
	st7735INVCTR  = 0xB4
	st7735PWCTR1  = 0xC0
	st7735PWCTR2  = 0xC1
	st7735PWCTR3  = 0xC2
	st7735PWCTR4  = 0xC3
	st7735PWCTR5  = 0xC4
	st7735VMCTR1  = 0xC5
	st7735GMCTRP1 = 0xE0
	st7735GMCTRN1 = 0xE1
)

// Memory Data Access Control (MADCTL) bit fields.
const (
	_                           byte = 1 << iota // D0: reserved
	_                                            // D1: reserved
	st7735DisplayDataLatchOrder                  // D2: MH
	st7735RGBOrder                               // D3: RGB
	st7735LineAddressOrder                       // D4: ML
	st7735PageColumnOrder                        // D5: MV
	st7735ColumnAddressOrder                     // D6: MX
	st7735PageAddressOrder                       // D7: MY
)

const (
	st7735ResetHold     = 5 * time.Millisecond
	st7735BacklightRate = 2 * physic.KiloHertz
)

// st7735Step is one command of the power up sequence and the settle time that follows it.
type st7735Step struct {
	command byte
	args    []byte
	delay   time.Duration
}

// st7735PowerUp runs before the full screen window is set.
var st7735PowerUp = []st7735Step{
	{st7735SWRESET, nil, 150 * time.Millisecond},
	{st7735SLPOUT, nil, 500 * time.Millisecond},
	{st7735FRMCTR1, []byte{0x01, 0x2C, 0x2D}, 0},                   // normal mode
	{st7735FRMCTR2, []byte{0x01, 0x2C, 0x2D}, 0},                   // idle mode
	{st7735FRMCTR3, []byte{0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D}, 20 * time.Millisecond}, // partial mode
	{st7735INVCTR, []byte{0x07}, 0},
	{st7735PWCTR1, []byte{0xA2, 0x02, 0x84}, 0},
	{st7735PWCTR2, []byte{0xC5}, 0},
	{st7735PWCTR3, []byte{0x0A, 0x00}, 0}, // opamp current small, boost frequency; 0x0A as in Adafruit's ST7735 Rcmd1
	{st7735PWCTR4, []byte{0x8A, 0x2A}, 0},
	{st7735PWCTR5, []byte{0x8A, 0xEE}, 0},
	{st7735VMCTR1, []byte{0x0E}, 0},
	{st7735INVOFF, nil, 0},
	{st7735MADCTL, []byte{st7735PageAddressOrder | st7735ColumnAddressOrder}, 20 * time.Millisecond},
	{st7735COLMOD, []byte{0x05}, 10 * time.Millisecond}, // 16-bits per pixel
}

// st7735DisplayOn runs after the full screen window is set.
var st7735DisplayOn = []st7735Step{
	{st7735GMCTRP1, []byte{0x02, 0x1C, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2D, 0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10}, 0},
	{st7735GMCTRN1, []byte{0x03, 0x1D, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D, 0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10}, 0},
	{st7735NORON, nil, 10 * time.Millisecond},
	{st7735DISPON, nil, 100 * time.Millisecond},
}

type st7735 struct {
	baseDisplay

	// img is the local mirror, nil for unbuffered displays.
	img       *pixel.CRGB16Image
	invert    bool
	backlight gpio.PinOut

	// window is the last addressing window sent to the controller, empty when unknown.
	window image.Rectangle

	// fill is a scratch row of pixels for filling rectangles.
	fill []byte
}

// ST7735 is a 16-bit color TFT controller on SPI.
func ST7735(c Conn, config *Config) (Display, error) {
	if config == nil {
		config = new(Config)
	}
	g := config.Geometry
	if g.Width == 0 && g.Height == 0 {
		g = ST7735_128x160
	}
	if g.Width == 0 || g.Height == 0 || int(g.Width)+int(g.XOffset) > st7735MaxWidth || int(g.Height)+int(g.YOffset) > st7735MaxHeight {
		return nil, fmt.Errorf("%w: ST7735 size %s, maximum size is %dx%d", ErrGeometry, g, st7735MaxWidth, st7735MaxHeight)
	}

	d := &st7735{
		invert:    config.InvertColors,
		backlight: config.Backlight,
	}
	d.baseDisplay.init(c, g, config)
	if config.Buffered {
		d.img = pixel.NewCRGB16Image(int(g.Width), int(g.Height))
		d.img.Order = binary.BigEndian
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *st7735) init() (err error) {
	if d.backlight != nil {
		if err = d.backlight.PWM(gpio.DutyMax, st7735BacklightRate); err != nil {
			return
		}
	} else {
		debugf("panel: %s has no backlight control", d)
	}

	// Hardware reset pulse.
	for _, level := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err = d.c.Reset(level); err != nil {
			return
		}
		sleep(st7735ResetHold)
	}

	if err = d.run(st7735PowerUp); err != nil {
		return
	}
	if err = d.setWindow(d.Bounds()); err != nil {
		return
	}
	return d.run(st7735DisplayOn)
}

func (d *st7735) run(steps []st7735Step) error {
	for _, step := range steps {
		if err := d.command(step.command, step.args...); err != nil {
			return err
		}
		if step.delay > 0 {
			sleep(step.delay)
		}
	}
	return nil
}

func (d *st7735) String() string {
	var policy string
	if d.invert {
		policy = " inverted"
	}
	return fmt.Sprintf("ST7735 %s%s%s", d.geometry, strategy(d.img != nil), policy)
}

func (d *st7735) ColorModel() color.Model {
	return pixel.CRGB16Model
}

// At returns the mirrored pixel, unbuffered displays can't be read back.
func (d *st7735) At(x, y int) color.Color {
	if d.img == nil || !d.geometry.Contains(x, y) {
		return color.Transparent
	}
	v := d.img.At(x, y).(pixel.CRGB16)
	if d.invert {
		v.V = ^v.V
	}
	return v
}

func (d *st7735) Set(x, y int, c color.Color) {
	if d.geometry.Contains(x, y) {
		d.keep(d.SetPixel(x, y, d.ColorToPixel(c)))
	}
}

// ColorToPixel converts c to RGB565, inverted if the display inverts colors.
func (d *st7735) ColorToPixel(c color.Color) Pixel {
	v := pixel.CRGB16Model.Convert(c).(pixel.CRGB16).V
	if d.invert {
		v = ^v
	}
	return Pixel(v)
}

// setWindow sets the addressing window to r, unless it is already active.
func (d *st7735) setWindow(r image.Rectangle) error {
	if r == d.window {
		return nil
	}
	var (
		x0 = uint16(r.Min.X) + d.geometry.XOffset
		x1 = uint16(r.Max.X-1) + d.geometry.XOffset
		y0 = uint16(r.Min.Y) + d.geometry.YOffset
		y1 = uint16(r.Max.Y-1) + d.geometry.YOffset
	)
	debugf("panel: st7735 window (%d,%d)-(%d,%d)", x0, y0, x1, y1)
	d.window = image.Rectangle{}
	if err := d.command(st7735CASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.command(st7735RASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	d.window = r
	return nil
}

// writeRAM sends pixel data to the window r.
func (d *st7735) writeRAM(r image.Rectangle, data []byte) error {
	if err := d.setWindow(r); err != nil {
		return err
	}
	return d.command(st7735RAMWR, data...)
}

func (d *st7735) SetPixel(x, y int, p Pixel) error {
	if err := d.check(x, y); err != nil {
		return err
	}
	if d.img != nil {
		d.img.SetCRGB16(x, y, uint16(p))
	} else if err := d.writeRAM(image.Rect(x, y, x+1, y+1), []byte{byte(p >> 8), byte(p)}); err != nil {
		return err
	}
	d.moved(x, y)
	return nil
}

// SetPixels writes a block of pixels in a single RAM write.
func (d *st7735) SetPixels(r image.Rectangle, pix []Pixel) error {
	if err := d.checkRect(r); err != nil {
		return err
	}
	if n := r.Dx() * r.Dy(); len(pix) != n {
		return fmt.Errorf("panel: %s needs %d pixels, got %d", r, n, len(pix))
	}
	if d.img != nil {
		i := 0
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				d.img.SetCRGB16(x, y, uint16(pix[i]))
				i++
			}
		}
	} else {
		data := make([]byte, 2*len(pix))
		for i, p := range pix {
			binary.BigEndian.PutUint16(data[i*2:], uint16(p))
		}
		if err := d.writeRAM(r, data); err != nil {
			return err
		}
	}
	d.moved(r.Max.X-1, r.Max.Y-1)
	return nil
}

// FillRect fills a block with a single pixel value.
func (d *st7735) FillRect(r image.Rectangle, p Pixel) error {
	if err := d.checkRect(r); err != nil {
		return err
	}
	if err := d.fillRect(r, p); err != nil {
		return err
	}
	d.moved(r.Max.X-1, r.Max.Y-1)
	return nil
}

func (d *st7735) fillRect(r image.Rectangle, p Pixel) error {
	if d.img != nil {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				d.img.SetCRGB16(x, y, uint16(p))
			}
		}
		return nil
	}

	if err := d.setWindow(r); err != nil {
		return err
	}
	if err := d.command(st7735RAMWR); err != nil {
		return err
	}

	// Stream the value one row of the panel at a time.
	if len(d.fill) == 0 {
		d.fill = make([]byte, 2*int(d.geometry.Width))
	}
	for i := 0; i+1 < len(d.fill); i += 2 {
		binary.BigEndian.PutUint16(d.fill[i:], uint16(p))
	}
	for n := 2 * r.Dx() * r.Dy(); n > 0; {
		chunk := min(n, len(d.fill))
		if err := d.data(d.fill[:chunk]...); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func (d *st7735) Clear() error {
	return d.ClearColor(d.background)
}

// ClearColor fills the panel with c. Buffered displays fill the mirror and flush it.
func (d *st7735) ClearColor(c color.Color) error {
	if d.closed {
		return ErrClosed
	}
	p := d.ColorToPixel(c)
	if d.img != nil {
		d.img.FillCRGB16(uint16(p))
		if err := d.Flush(); err != nil {
			return err
		}
	} else if err := d.fillRect(d.Bounds(), p); err != nil {
		return err
	}
	d.moved(0, 0)
	return nil
}

// Flush sets the full screen window and writes the mirror.
func (d *st7735) Flush() error {
	if d.closed {
		return ErrClosed
	}
	if d.img == nil {
		return nil
	}
	return d.writeRAM(d.Bounds(), d.img.Pix)
}

func (d *st7735) Show(show bool) error {
	if d.closed {
		return ErrClosed
	}
	if show {
		return d.command(st7735DISPON)
	}
	return d.command(st7735DISPOFF)
}

// SetContrast sets the backlight duty cycle, if there is a backlight pin.
func (d *st7735) SetContrast(level uint8) error {
	if d.closed {
		return ErrClosed
	}
	if d.backlight == nil {
		return nil
	}
	const step = gpio.DutyMax / 0xFF
	debugf("panel: st7735 backlight duty cycle to %s at %s", step*gpio.Duty(level), st7735BacklightRate)
	return d.backlight.PWM(step*gpio.Duty(level), st7735BacklightRate)
}

func (d *st7735) Close() error {
	return d.close(func() error { return d.Show(false) })
}

var (
	_ Display     = (*st7735)(nil)
	_ BlockWriter = (*st7735)(nil)
)
