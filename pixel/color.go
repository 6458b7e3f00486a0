package pixel

import "image/color"

// Models for the native panel encodings.
var (
	MonoModel   color.Model = color.ModelFunc(monoModel)
	CRGB16Model color.Model = color.ModelFunc(crgb16Model)
)

var (
	Off = Mono{false}
	On  = Mono{true}
)

// Mono represents a 1-bit monochrome color.
type Mono struct {
	On bool
}

func (c Mono) RGBA() (r, g, b, a uint32) {
	if c.On {
		return 0xffff, 0xffff, 0xffff, 0xffff
	}
	return 0, 0, 0, 0xffff
}

func monoModel(c color.Color) color.Color {
	if _, ok := c.(Mono); ok {
		return c
	}
	return Mono{On: IsLit(c)}
}

// IsLit reports whether c lights a monochrome pixel.
//
// The luminance uses the JFIF coefficients (19595 + 38470 + 7471 = 65536), a
// pixel is lit from 50% luminance upwards.
func IsLit(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	y := (19595*uint64(r) + 38470*uint64(g) + 7471*uint64(b) + 1<<15) >> 16
	return y >= 0x8000
}

// CRGB16 represents a 16-bit 5-6-5 RGB color.
type CRGB16 struct {
	// CRed, 5, CGreen, 6, CBlue, 5
	V uint16
}

func (c CRGB16) RGBA() (r, g, b, a uint32) {
	// Build a 5- or 6-bit value at the top of the low byte of each component.
	red := (c.V & 0xF800) >> 8
	grn := (c.V & 0x07E0) >> 3
	blu := (c.V & 0x001F) << 3
	// Duplicate the high bits in the low bits.
	red |= red >> 5
	grn |= grn >> 6
	blu |= blu >> 5
	// Duplicate the whole value in the high byte.
	red |= red << 8
	grn |= grn << 8
	blu |= blu << 8
	return uint32(red), uint32(grn), uint32(blu), 0xffff
}

func crgb16Model(c color.Color) color.Color {
	switch c := c.(type) {
	case CRGB16:
		return c
	case Mono:
		if c.On {
			return CRGB16{0xffff}
		}
		return CRGB16{}
	default:
		r, g, b, _ := c.RGBA()
		return CRGB16{RGB565(uint8(r>>8), uint8(g>>8), uint8(b>>8))}
	}
}

// RGB565 packs 8-bit channels into 5-6-5 bits, scaling each channel linearly
// with rounding to the nearest step.
func RGB565(r, g, b uint8) uint16 {
	return scale(r, 0x1f)<<11 | scale(g, 0x3f)<<5 | scale(b, 0x1f)
}

func scale(v uint8, max uint16) uint16 {
	return (uint16(v)*max + 0x7f) / 0xff
}
