package panel

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestI2CConn(t *testing.T) {
	bus := &i2ctest.Record{}
	reset := &gpiotest.Pin{N: "RST"}
	c := NewI2CDev(bus, 0x3c, reset)

	if err := c.Command(ssd1306SetDisplayOff); err != nil {
		t.Fatal(err)
	}
	if err := c.Command(ssd1306SetColumnAddr, 0x00, 0x7f); err != nil {
		t.Fatal(err)
	}
	if err := c.Data(0x01, 0x02); err != nil {
		t.Fatal(err)
	}
	f := c.(Framer)
	if err := f.WriteCommands([]byte{0xae}, nil, []byte{0xd5, 0x80}); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteCommands(); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteFrame([]byte{f.DataPrefix(), 0xff}); err != nil {
		t.Fatal(err)
	}

	want := []i2ctest.IO{
		{Addr: 0x3c, W: []byte{0x80, 0xae}},
		{Addr: 0x3c, W: []byte{0x80, 0x21, 0x80, 0x00, 0x80, 0x7f}},
		{Addr: 0x3c, W: []byte{0x40, 0x01, 0x02}},
		{Addr: 0x3c, W: []byte{0x80, 0xae, 0x80, 0xd5, 0x80}},
		{Addr: 0x3c, W: []byte{0x40, 0xff}},
	}
	if diff := cmp.Diff(want, bus.Ops); diff != "" {
		t.Errorf("transfers (-want +got):\n%s", diff)
	}

	if err := c.Reset(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if reset.L != gpio.Low {
		t.Error("expected reset pin to be low")
	}
	if err := NewI2CDev(bus, 0x3c, nil).Reset(gpio.High); err != nil {
		t.Errorf("expected reset without pin to succeed, got %v", err)
	}
}

func TestSPIConn(t *testing.T) {
	r := &recorder{}
	c, err := NewSPI(r, r.pin("DC"), r.pin("CS"), nil)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("command", func(it *testing.T) {
		r.reset()
		if err := c.Command(st7735CASET, 0x00, 0x1a); err != nil {
			it.Fatal(err)
		}
		want := []event{
			{Pin: "DC", Level: gpio.Low},
			{Pin: "CS", Level: gpio.Low},
			{W: []byte{0x2a}},
			{Pin: "CS", Level: gpio.High},
			{Pin: "DC", Level: gpio.High},
			{Pin: "CS", Level: gpio.Low},
			{W: []byte{0x00, 0x1a}},
			{Pin: "CS", Level: gpio.High},
		}
		if diff := cmp.Diff(want, r.events); diff != "" {
			it.Errorf("events (-want +got):\n%s", diff)
		}
	})

	t.Run("empty", func(it *testing.T) {
		r.reset()
		if err := c.Data(); err != nil {
			it.Fatal(err)
		}
		want := []event{
			{Pin: "DC", Level: gpio.High},
			{Pin: "CS", Level: gpio.Low},
			{Pin: "CS", Level: gpio.High},
		}
		if diff := cmp.Diff(want, r.events); diff != "" {
			it.Errorf("events (-want +got):\n%s", diff)
		}
	})

	t.Run("chunked", func(it *testing.T) {
		r.reset()
		c.(*spiConn).batchSize = 4
		defer func() { c.(*spiConn).batchSize = DefaultSPIConfig.BatchSize }()
		if err := c.Data(0, 1, 2, 3, 4, 5, 6, 7, 8, 9); err != nil {
			it.Fatal(err)
		}
		want := []event{
			{Pin: "DC", Level: gpio.High},
			{Pin: "CS", Level: gpio.Low},
			{W: []byte{0, 1, 2, 3}},
			{W: []byte{4, 5, 6, 7}},
			{W: []byte{8, 9}},
			{Pin: "CS", Level: gpio.High},
		}
		if diff := cmp.Diff(want, r.events); diff != "" {
			it.Errorf("events (-want +got):\n%s", diff)
		}
	})

	t.Run("failure", func(it *testing.T) {
		r.reset()
		fault := errors.New("bus fault")
		r.err = fault
		defer func() { r.err = nil }()
		if err := c.Data(0xff); !errors.Is(err, fault) {
			it.Fatalf("expected %v, got %v", fault, err)
		}
		want := []event{
			{Pin: "DC", Level: gpio.High},
			{Pin: "CS", Level: gpio.Low},
			{Pin: "CS", Level: gpio.High},
		}
		if diff := cmp.Diff(want, r.events); diff != "" {
			it.Errorf("chip select must be released (-want +got):\n%s", diff)
		}
	})
}

func TestSPIConnHardwareSelect(t *testing.T) {
	r := &recorder{}
	c, err := NewSPI(r, r.pin("DC"), gpio.INVALID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err = c.Command(st7735DISPON); err != nil {
		t.Fatal(err)
	}
	want := []event{
		{Pin: "DC", Level: gpio.Low},
		{W: []byte{0x29}},
	}
	if diff := cmp.Diff(want, r.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestNewSPIRequiresDC(t *testing.T) {
	r := &recorder{}
	for _, dc := range []gpio.PinOut{nil, gpio.INVALID} {
		if _, err := NewSPI(r, dc, nil, nil); !errors.Is(err, ErrDCPin) {
			t.Errorf("expected %v for DC %v, got %v", ErrDCPin, dc, err)
		}
	}
}

func TestOpenSPIRequiresReset(t *testing.T) {
	if _, err := OpenSPI(&SPIConfig{DC: &gpiotest.Pin{N: "DC"}}); !errors.Is(err, ErrResetPin) {
		t.Errorf("expected %v, got %v", ErrResetPin, err)
	}
}
