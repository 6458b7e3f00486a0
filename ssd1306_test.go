package panel

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/BeatGlow/panel/pixel"
)

const testAddr = 0x3c

func testSSD1306(t *testing.T, config *Config) (Display, *i2ctest.Record) {
	t.Helper()
	bus := &i2ctest.Record{}
	d, err := SSD1306(NewI2CDev(bus, testAddr, nil), config)
	if err != nil {
		t.Fatal(err)
	}
	bus.Ops = nil
	return d, bus
}

func testOps(frames ...[]byte) []i2ctest.IO {
	ops := make([]i2ctest.IO, len(frames))
	for i, frame := range frames {
		ops[i] = i2ctest.IO{Addr: testAddr, W: frame}
	}
	return ops
}

func TestSSD1306Init(t *testing.T) {
	tests := []struct {
		name     string
		geometry Geometry
		want     []byte
	}{
		{
			"128x64",
			Geometry{},
			[]byte{
				0x80, 0xae,
				0x80, 0xd5, 0x80,
				0x80, 0xa8, 0x3f,
				0x80, 0xd3, 0x00,
				0x80, 0x40,
				0x80, 0x8d, 0x14,
				0x80, 0x20, 0x00,
				0x80, 0xa1,
				0x80, 0xc8,
				0x80, 0xda, 0x12,
				0x80, 0x81, 0xcf,
				0x80, 0xd9, 0xf1,
				0x80, 0xdb, 0x40,
				0x80, 0xa4,
				0x80, 0xa6,
				0x80, 0xaf,
			},
		},
		{
			"128x32",
			SSD1306_128x32,
			[]byte{
				0x80, 0xae,
				0x80, 0xd5, 0x80,
				0x80, 0xa8, 0x1f,
				0x80, 0xd3, 0x00,
				0x80, 0x40,
				0x80, 0x8d, 0x14,
				0x80, 0x20, 0x00,
				0x80, 0xa1,
				0x80, 0xc8,
				0x80, 0xda, 0x02,
				0x80, 0x81, 0xcf,
				0x80, 0xd9, 0xf1,
				0x80, 0xdb, 0x40,
				0x80, 0xa4,
				0x80, 0xa6,
				0x80, 0xaf,
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(it *testing.T) {
			bus := &i2ctest.Record{}
			d, err := SSD1306(NewI2CDev(bus, testAddr, nil), &Config{Geometry: test.geometry})
			if err != nil {
				it.Fatal(err)
			}
			if diff := cmp.Diff(testOps(test.want), bus.Ops); diff != "" {
				it.Errorf("init sequence (-want +got):\n%s", diff)
			}
			if v := d.String(); v != "SSD1306 OLED "+test.name {
				it.Errorf("unexpected name %q", v)
			}
		})
	}
}

// commandConn records commands without framing.
type commandConn struct {
	commands [][]byte
	data     [][]byte
}

func (c *commandConn) String() string         { return "commands" }
func (c *commandConn) Close() error           { return nil }
func (c *commandConn) Reset(gpio.Level) error { return nil }

func (c *commandConn) Command(command byte, args ...byte) error {
	c.commands = append(c.commands, append([]byte{command}, args...))
	return nil
}

func (c *commandConn) Data(data ...byte) error {
	c.data = append(c.data, append([]byte(nil), data...))
	return nil
}

func TestSSD1306InitWithoutFramer(t *testing.T) {
	c := &commandConn{}
	d, err := SSD1306(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ssd1306InitSequence(SSD1306_128x64), c.commands); diff != "" {
		t.Errorf("init commands (-want +got):\n%s", diff)
	}

	// Without a framer the mirror is sent without the framing byte.
	c.commands, c.data = nil, nil
	if err = d.ClearColor(color.White); err != nil {
		t.Fatal(err)
	}
	if len(c.data) != 1 {
		t.Fatalf("expected one data transfer, got %d", len(c.data))
	}
	if want := bytes.Repeat([]byte{0xff}, 128*64/8); !bytes.Equal(c.data[0], want) {
		t.Errorf("expected %d bytes of 0xff, got % x", len(want), c.data[0])
	}
}

func TestSSD1306Geometry(t *testing.T) {
	for _, g := range []Geometry{
		{Width: 129, Height: 64},
		{Width: 128, Height: 30},
		{Width: 128, Height: 72},
		{Width: 0, Height: 64},
		{Width: 64, Height: 32, XOffset: 65},
		{Width: 64, Height: 32, YOffset: 4},
		{Width: 64, Height: 32, YOffset: 16},
		{Width: 64, Height: 32, XOffset: 0xffff},
	} {
		if _, err := SSD1306(&commandConn{}, &Config{Geometry: g}); !errors.Is(err, ErrGeometry) {
			t.Errorf("%s: expected %v, got %v", g, ErrGeometry, err)
		}
	}
}

func TestSSD1306Unbuffered(t *testing.T) {
	d, bus := testSSD1306(t, &Config{})

	steps := []struct {
		name string
		x, y int
		p    Pixel
		want []i2ctest.IO
	}{
		{
			"first", 5, 10, 1,
			testOps(
				[]byte{0x80, 0x21, 0x80, 0x05, 0x80, 0x7f},
				[]byte{0x80, 0x22, 0x80, 0x01, 0x80, 0x07},
				[]byte{0x40, 0x04},
			),
		},
		{
			// The controller column auto incremented to 6.
			"next column", 6, 10, 1,
			testOps([]byte{0x40, 0x04}),
		},
		{
			"readdress", 6, 10, 0,
			testOps(
				[]byte{0x80, 0x21, 0x80, 0x06, 0x80, 0x7f},
				[]byte{0x80, 0x22, 0x80, 0x01, 0x80, 0x07},
				[]byte{0x40, 0x00},
			),
		},
		{
			// The bit of (5, 10) is kept.
			"sibling", 5, 11, 1,
			testOps(
				[]byte{0x80, 0x21, 0x80, 0x05, 0x80, 0x7f},
				[]byte{0x80, 0x22, 0x80, 0x01, 0x80, 0x07},
				[]byte{0x40, 0x0c},
			),
		},
	}
	for _, step := range steps {
		t.Run(step.name, func(it *testing.T) {
			bus.Ops = nil
			if err := d.SetPixel(step.x, step.y, step.p); err != nil {
				it.Fatal(err)
			}
			if diff := cmp.Diff(step.want, bus.Ops); diff != "" {
				it.Errorf("transfers (-want +got):\n%s", diff)
			}
			if v := d.Cursor(WriteCursor); v != (Cursor{X: uint16(step.x), Y: uint16(step.y)}) {
				it.Errorf("expected write cursor at (%d,%d), got %+v", step.x, step.y, v)
			}
		})
	}

	bus.Ops = nil
	if err := d.SetPixel(128, 0, 1); !errors.Is(err, ErrBounds) {
		t.Fatalf("expected %v, got %v", ErrBounds, err)
	}
	if err := d.SetPixel(0, -1, 1); !errors.Is(err, ErrBounds) {
		t.Fatalf("expected %v, got %v", ErrBounds, err)
	}
	if len(bus.Ops) != 0 {
		t.Fatalf("expected no transfers for out of bounds pixels, got %d", len(bus.Ops))
	}
	if v := d.Cursor(WriteCursor); v != (Cursor{X: 5, Y: 11}) {
		t.Fatalf("expected write cursor unchanged, got %+v", v)
	}
	if err := d.Flush(); err != nil || len(bus.Ops) != 0 {
		t.Fatalf("expected unbuffered flush to be a no-op, got %v and %d transfers", err, len(bus.Ops))
	}
}

func TestSSD1306Clear(t *testing.T) {
	d, bus := testSSD1306(t, &Config{})
	if err := d.SetPixel(3, 3, 1); err != nil {
		t.Fatal(err)
	}

	bus.Ops = nil
	if err := d.ClearColor(color.White); err != nil {
		t.Fatal(err)
	}
	frame := append([]byte{0x40}, bytes.Repeat([]byte{0xff}, 1024)...)
	want := testOps(
		[]byte{0x80, 0x21, 0x80, 0x00, 0x80, 0x7f},
		[]byte{0x80, 0x22, 0x80, 0x00, 0x80, 0x07},
		frame,
	)
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("transfers (-want +got):\n%s", diff)
	}
	if v := d.Cursor(WriteCursor); v != (Cursor{}) {
		t.Errorf("expected write cursor at origin, got %+v", v)
	}

	// The controller address wrapped back to the origin.
	bus.Ops = nil
	if err := d.SetPixel(0, 0, 0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testOps([]byte{0x40, 0xfe}), bus.Ops); diff != "" {
		t.Errorf("transfers (-want +got):\n%s", diff)
	}

	// Clear uses the configured background.
	bus.Ops = nil
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	if l := len(bus.Ops); l != 3 {
		t.Fatalf("expected 3 transfers, got %d", l)
	}
	if diff := cmp.Diff(make([]byte, 1024), bus.Ops[2].W[1:]); diff != "" {
		t.Errorf("expected a black frame (-want +got):\n%s", diff)
	}
}

func TestSSD1306Offset(t *testing.T) {
	d, bus := testSSD1306(t, &Config{Geometry: Geometry{Width: 64, Height: 32, XOffset: 32}})
	if err := d.SetPixel(0, 31, 1); err != nil {
		t.Fatal(err)
	}
	// The last row is on the last page of the scanned rows.
	want := testOps(
		[]byte{0x80, 0x21, 0x80, 0x20, 0x80, 0x5f},
		[]byte{0x80, 0x22, 0x80, 0x03, 0x80, 0x03},
		[]byte{0x40, 0x80},
	)
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("transfers (-want +got):\n%s", diff)
	}
}

func TestSSD1306Buffered(t *testing.T) {
	d, bus := testSSD1306(t, &Config{Buffered: true})
	if v := d.String(); v != "SSD1306 OLED 128x64 buffered" {
		t.Errorf("unexpected name %q", v)
	}

	for y := 0; y < 64; y++ {
		for x := 0; x < 128; x++ {
			if (x+y)%3 == 0 {
				d.Set(x, y, color.White)
			}
		}
	}
	if len(bus.Ops) != 0 {
		t.Fatalf("expected no transfers before flush, got %d", len(bus.Ops))
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 128; x++ {
			want := pixel.Mono{On: (x+y)%3 == 0}
			if v := d.At(x, y); v != want {
				t.Fatalf("pixel (%d,%d) is %v, expected %v", x, y, v, want)
			}
		}
	}

	if err := d.Flush(); err != nil {
		t.Fatal(err)
	}
	if l := len(bus.Ops); l != 3 {
		t.Fatalf("expected 3 transfers, got %d", l)
	}
	frame := bus.Ops[2].W
	if l := len(frame); l != 1+1024 {
		t.Fatalf("expected a frame of %d bytes, got %d", 1+1024, l)
	}
	if frame[0] != 0x40 {
		t.Errorf("expected framing byte 0x40, got %#02x", frame[0])
	}
	// Column 0 of page 0 holds rows 0, 3 and 6.
	if v := frame[1]; v != 0x49 {
		t.Errorf("expected first pixel byte 0x49, got %#02x", v)
	}

	// Full coverage after a clear.
	for _, c := range []color.Color{color.White, color.Black} {
		if err := d.ClearColor(c); err != nil {
			t.Fatal(err)
		}
		want := pixel.MonoModel.Convert(c)
		for y := 0; y < 64; y++ {
			for x := 0; x < 128; x++ {
				if v := d.At(x, y); v != want {
					t.Fatalf("pixel (%d,%d) is %v after clear, expected %v", x, y, v, want)
				}
			}
		}
	}
}

func TestSSD1306ColorToPixel(t *testing.T) {
	d, _ := testSSD1306(t, &Config{})
	if v := d.ColorToPixel(color.White); v != 1 {
		t.Errorf("expected white to be 1, got %d", v)
	}
	if v := d.ColorToPixel(color.Black); v != 0 {
		t.Errorf("expected black to be 0, got %d", v)
	}
	if v := d.ColorToPixel(color.Gray{Y: 0x80}); v != 1 {
		t.Errorf("expected 50%% gray to be 1, got %d", v)
	}
	if v := d.ColorToPixel(color.Gray{Y: 0x7f}); v != 0 {
		t.Errorf("expected gray below 50%% to be 0, got %d", v)
	}
	if v := d.ColorModel(); v != pixel.MonoModel {
		t.Errorf("expected mono color model")
	}
}

func TestSSD1306Close(t *testing.T) {
	d, bus := testSSD1306(t, &Config{})
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testOps([]byte{0x80, 0xae}), bus.Ops); diff != "" {
		t.Errorf("transfers (-want +got):\n%s", diff)
	}
	bus.Ops = nil
	for name, err := range map[string]error{
		"SetPixel":    d.SetPixel(0, 0, 1),
		"Show":        d.Show(true),
		"SetContrast": d.SetContrast(0x10),
		"Flush":       d.Flush(),
	} {
		if !errors.Is(err, ErrClosed) {
			t.Errorf("%s: expected %v, got %v", name, ErrClosed, err)
		}
	}
	if len(bus.Ops) != 0 {
		t.Errorf("expected no transfers after close, got %d", len(bus.Ops))
	}
	if err := d.Close(); err != nil {
		t.Errorf("expected a second close to succeed, got %v", err)
	}
}
