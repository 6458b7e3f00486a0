package pixel

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values and is a container that is used by the image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels, or between pages
	// for the vertical formats.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	p.fill(0x00)
}

func (p *Buffer) fill(v byte) {
	for i := range p.Pix {
		p.Pix[i] = v
	}
}

// MonoVerticalLSBImage is a 1-bit per pixel monochrome image.
//
// Every byte covers 8 vertically stacked pixels of one column with the top pixel in the least
// significant bit; a row of bytes is a page. This is the GDDRAM layout of the SSD1306.
type MonoVerticalLSBImage struct {
	Buffer

	// Frame is the allocation backing Pix, including any leading header bytes.
	Frame []byte
}

// NewMonoVerticalLSBImage allocates an image of w×h pixels.
func NewMonoVerticalLSBImage(w, h int) *MonoVerticalLSBImage {
	return NewMonoVerticalLSBImageWithHeader(w, h, nil)
}

// NewMonoVerticalLSBImageWithHeader allocates an image of w×h pixels whose pixel bytes follow
// the header in a single contiguous frame. The header is copied and never touched again.
func NewMonoVerticalLSBImageWithHeader(w, h int, header []byte) *MonoVerticalLSBImage {
	pages := (h + 7) / 8
	frame := make([]byte, len(header)+pages*w)
	copy(frame, header)
	return &MonoVerticalLSBImage{
		Buffer: Buffer{
			Rect:   image.Rect(0, 0, w, h),
			Pix:    frame[len(header):],
			Stride: w,
		},
		Frame: frame,
	}
}

func (p *MonoVerticalLSBImage) ColorModel() color.Model {
	return MonoModel
}

// PixOffset is the index in Pix of the byte holding (x, y).
func (p *MonoVerticalLSBImage) PixOffset(x, y int) int {
	return x + (y/8)*p.Stride
}

// Bit is the mask of (x, y) inside the byte at PixOffset.
func (p *MonoVerticalLSBImage) Bit(y int) byte {
	return 1 << uint(y&7)
}

func (p *MonoVerticalLSBImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return Mono{On: p.Pix[p.PixOffset(x, y)]&p.Bit(y) != 0}
}

func (p *MonoVerticalLSBImage) Set(x, y int, c color.Color) {
	p.SetBit(x, y, IsLit(c))
}

// SetBit sets or clears the bit of (x, y), leaving the other pixels of that byte untouched. It
// returns the offset of the changed byte, or -1 if (x, y) is outside the image.
func (p *MonoVerticalLSBImage) SetBit(x, y int, on bool) int {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return -1
	}
	pos := p.PixOffset(x, y)
	if on {
		p.Pix[pos] |= p.Bit(y)
	} else {
		p.Pix[pos] &^= p.Bit(y)
	}
	return pos
}

func (p *MonoVerticalLSBImage) Fill(c color.Color) {
	if IsLit(c) {
		p.fill(0xff)
	} else {
		p.fill(0x00)
	}
}

// CRGB16Image is a 16-bits per pixel 5-6-5-bit RGB image.
type CRGB16Image struct {
	Buffer

	// Order is the byte order of each pixel in Pix.
	Order binary.ByteOrder
}

// NewCRGB16Image allocates a big-endian image of w×h pixels.
func NewCRGB16Image(w, h int) *CRGB16Image {
	return &CRGB16Image{
		Buffer: Buffer{
			Rect:   image.Rect(0, 0, w, h),
			Pix:    make([]byte, w*2*h),
			Stride: w * 2,
		},
		Order: binary.BigEndian,
	}
}

func (p *CRGB16Image) ColorModel() color.Model {
	return CRGB16Model
}

func (p *CRGB16Image) PixOffset(x, y int) int {
	return x*2 + y*p.Stride
}

func (p *CRGB16Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return CRGB16{p.Order.Uint16(p.Pix[p.PixOffset(x, y):])}
}

func (p *CRGB16Image) Set(x, y int, c color.Color) {
	p.SetCRGB16(x, y, crgb16Model(c).(CRGB16).V)
}

// SetCRGB16 stores a packed RGB565 value at (x, y).
func (p *CRGB16Image) SetCRGB16(x, y int, v uint16) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Order.PutUint16(p.Pix[p.PixOffset(x, y):], v)
}

func (p *CRGB16Image) Fill(c color.Color) {
	p.FillCRGB16(crgb16Model(c).(CRGB16).V)
}

// FillCRGB16 stores v in every pixel.
func (p *CRGB16Image) FillCRGB16(v uint16) {
	var pair [2]byte
	p.Order.PutUint16(pair[:], v)
	for i, l := 0, len(p.Pix); i+1 < l; i += 2 {
		p.Pix[i] = pair[0]
		p.Pix[i+1] = pair[1]
	}
}

// Interface checks.
var (
	_ Image = (*MonoVerticalLSBImage)(nil)
	_ Image = (*CRGB16Image)(nil)
)
