package panel

import (
	"fmt"
	"image/color"

	"github.com/BeatGlow/panel/pixel"
)

// Fundamental, addressing and hardware configuration commands (from SSD1306.pdf).
const (
	ssd1306SetMemoryMode         = 0x20
	ssd1306SetColumnAddr         = 0x21
	ssd1306SetPageAddr           = 0x22
	ssd1306SetStartLine          = 0x40
	ssd1306SetContrast           = 0x81
	ssd1306SetChargePump         = 0x8D
	ssd1306SetSegmentRemap       = 0xA0
	ssd1306SetDisplayAllOnResume = 0xA4
	ssd1306SetNormalDisplay      = 0xA6
	ssd1306SetMultiplexRatio     = 0xA8
	ssd1306SetDisplayOff         = 0xAE
	ssd1306SetDisplayOn          = 0xAF
	ssd1306SetComScanDec         = 0xC8
	ssd1306SetDisplayOffset      = 0xD3
	ssd1306SetDisplayClockDiv    = 0xD5
	ssd1306SetPrecharge          = 0xD9
	ssd1306SetComPins            = 0xDA
	ssd1306SetVComDetect         = 0xDB
)

const (
	ssd1306MaxWidth  = 128
	ssd1306MaxHeight = 64
	ssd1306PageSize  = 8
)

type ssd1306 struct {
	baseDisplay

	// img mirrors the controller memory. The controller can't be read back over I²C, so the
	// mirror is also needed to keep the sibling bits of an unbuffered pixel write.
	img *pixel.MonoVerticalLSBImage

	framer   Framer
	buffered bool
	pages    int

	// col and page track the auto incremented controller address, col is -1 when unknown.
	col, page int
}

// SSD1306 is a 128x64 or 128x32 monochrome OLED controller, usually on I²C.
func SSD1306(c Conn, config *Config) (Display, error) {
	if config == nil {
		config = new(Config)
	}
	g := config.Geometry
	if g.Width == 0 && g.Height == 0 {
		g = SSD1306_128x64
	}
	if err := ssd1306ValidGeometry(g); err != nil {
		return nil, err
	}

	d := &ssd1306{
		buffered: config.Buffered,
		pages:    int(g.Height) / ssd1306PageSize,
		col:      -1,
	}
	d.baseDisplay.init(c, g, config)

	var header []byte
	if f, ok := c.(Framer); ok {
		d.framer = f
		header = []byte{f.DataPrefix()}
	}
	d.img = pixel.NewMonoVerticalLSBImageWithHeader(int(g.Width), int(g.Height), header)

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func ssd1306ValidGeometry(g Geometry) error {
	switch {
	case g.Width == 0 || int(g.Width)+int(g.XOffset) > ssd1306MaxWidth:
		return fmt.Errorf("%w: SSD1306 width %d at offset %d", ErrGeometry, g.Width, g.XOffset)
	case g.Height == 0 || g.Height%ssd1306PageSize != 0 || int(g.Height) > ssd1306MaxHeight:
		return fmt.Errorf("%w: SSD1306 height %d", ErrGeometry, g.Height)
	case g.YOffset != 0:
		// The multiplex ratio scans RAM rows 0..Height-1, there is no row offset.
		return fmt.Errorf("%w: SSD1306 row offset %d, only column offsets are supported", ErrGeometry, g.YOffset)
	}
	return nil
}

// ssd1306InitSequence is the power up sequence, the order is significant: the charge pump has
// to be enabled before the display is switched on.
func ssd1306InitSequence(g Geometry) [][]byte {
	var (
		clockDiv byte = 0x80
		comPins  byte = 0x12
	)
	switch {
	case g.Width == 96 && g.Height == 16:
		clockDiv, comPins = 0x60, 0x02
	case g.Width == 128 && g.Height == 32:
		comPins = 0x02
	}
	return [][]byte{
		{ssd1306SetDisplayOff},
		{ssd1306SetDisplayClockDiv, clockDiv},
		{ssd1306SetMultiplexRatio, byte(g.Height - 1)},
		{ssd1306SetDisplayOffset, 0x00},
		{ssd1306SetStartLine | 0x00},
		{ssd1306SetChargePump, 0x14},
		{ssd1306SetMemoryMode, 0x00},
		{ssd1306SetSegmentRemap | 0x01},
		{ssd1306SetComScanDec},
		{ssd1306SetComPins, comPins},
		{ssd1306SetContrast, 0xCF},
		{ssd1306SetPrecharge, 0xF1},
		{ssd1306SetVComDetect, 0x40},
		{ssd1306SetDisplayAllOnResume},
		{ssd1306SetNormalDisplay},
		{ssd1306SetDisplayOn},
	}
}

func (d *ssd1306) init() error {
	sequence := ssd1306InitSequence(d.geometry)
	debugf("panel: %s init with %d commands", d, len(sequence))
	if d.framer != nil {
		return d.framer.WriteCommands(sequence...)
	}
	for _, command := range sequence {
		if err := d.command(command[0], command[1:]...); err != nil {
			return err
		}
	}
	return nil
}

func (d *ssd1306) String() string {
	return fmt.Sprintf("SSD1306 OLED %s%s", d.geometry, strategy(d.buffered))
}

func (d *ssd1306) ColorModel() color.Model {
	return pixel.MonoModel
}

func (d *ssd1306) At(x, y int) color.Color {
	return d.img.At(x, y)
}

func (d *ssd1306) Set(x, y int, c color.Color) {
	if d.geometry.Contains(x, y) {
		d.keep(d.SetPixel(x, y, d.ColorToPixel(c)))
	}
}

// ColorToPixel returns 1 for colors at or above 50% luminance, see [pixel.IsLit].
func (d *ssd1306) ColorToPixel(c color.Color) Pixel {
	if pixel.IsLit(c) {
		return 1
	}
	return 0
}

// SetPixel sets the pixel for any non-zero p.
func (d *ssd1306) SetPixel(x, y int, p Pixel) error {
	if err := d.check(x, y); err != nil {
		return err
	}
	pos := d.img.SetBit(x, y, p != 0)
	if !d.buffered {
		if err := d.writeByte(x, y/ssd1306PageSize, d.img.Pix[pos]); err != nil {
			return err
		}
	}
	d.moved(x, y)
	return nil
}

// writeByte writes one page byte, the column and page address are only sent if the controller
// isn't already pointing at (col, page).
func (d *ssd1306) writeByte(col, page int, b byte) error {
	if col != d.col || page != d.page {
		if err := d.setAddress(col, page); err != nil {
			d.col = -1
			return err
		}
		d.col, d.page = col, page
	}
	if err := d.data(b); err != nil {
		d.col = -1
		return err
	}
	if d.col++; d.col >= int(d.geometry.Width) {
		d.col = -1
	}
	return nil
}

func (d *ssd1306) setAddress(col, page int) error {
	var (
		x0 = byte(col) + byte(d.geometry.XOffset)
		x1 = byte(d.geometry.XOffset + d.geometry.Width - 1)
		p0 = byte(page)
		p1 = byte(d.pages - 1)
	)
	if err := d.command(ssd1306SetColumnAddr, x0, x1); err != nil {
		return err
	}
	return d.command(ssd1306SetPageAddr, p0, p1)
}

func (d *ssd1306) Clear() error {
	return d.ClearColor(d.background)
}

// ClearColor fills the mirror and pushes it in one transfer.
func (d *ssd1306) ClearColor(c color.Color) error {
	if d.closed {
		return ErrClosed
	}
	d.img.Fill(c)
	if err := d.push(); err != nil {
		return err
	}
	d.moved(0, 0)
	return nil
}

func (d *ssd1306) Flush() error {
	if d.closed {
		return ErrClosed
	}
	if !d.buffered {
		return nil
	}
	return d.push()
}

// push writes the whole mirror, including the framing byte if the connection takes raw frames.
func (d *ssd1306) push() error {
	if err := d.setAddress(0, 0); err != nil {
		d.col = -1
		return err
	}
	var err error
	if d.framer != nil {
		err = d.framer.WriteFrame(d.img.Frame)
	} else {
		err = d.data(d.img.Pix...)
	}
	if err != nil {
		d.col = -1
		return err
	}
	// The address wraps around to the start of the window after a full write.
	d.col, d.page = 0, 0
	return nil
}

func (d *ssd1306) Show(show bool) error {
	if d.closed {
		return ErrClosed
	}
	if show {
		return d.command(ssd1306SetDisplayOn)
	}
	return d.command(ssd1306SetDisplayOff)
}

func (d *ssd1306) SetContrast(level uint8) error {
	if d.closed {
		return ErrClosed
	}
	return d.command(ssd1306SetContrast, level)
}

func (d *ssd1306) Close() error {
	return d.close(func() error { return d.Show(false) })
}

func strategy(buffered bool) string {
	if buffered {
		return " buffered"
	}
	return ""
}

var (
	_ Display = (*ssd1306)(nil)
)
