package panel

import (
	"errors"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/panel/bus"
)

// Conn errors.
var (
	ErrResetPin = errors.New("panel: reset GPIO pin is invalid")
	ErrDCPin    = errors.New("panel: data/command (DC) GPIO pin is invalid")
)

// sleep is used for the controller settle delays.
var sleep = time.Sleep

// Conn is the connection interface for communicating with hardware.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Reset sets the reset pin to the provided level.
	Reset(gpio.Level) error

	// Command sends a command byte with optional arguments.
	Command(byte, ...byte) error

	// Data sends data bytes.
	Data(...byte) error
}

// Framer is implemented by connections whose transfers start with a framing byte.
type Framer interface {
	// WriteCommands sends all commands, each followed by its arguments, in one transfer.
	WriteCommands(commands ...[]byte) error

	// DataPrefix is the framing byte that starts a data transfer.
	DataPrefix() byte

	// WriteFrame sends a data transfer that already starts with DataPrefix.
	WriteFrame(frame []byte) error
}

// I²C framing bytes (control byte with the Co and D/C# bits).
const (
	i2cCommandPrefix = 0x80
	i2cDataPrefix    = 0x40
)

// I2CConfig describes the I²C bus configuration.
type I2CConfig struct {
	// Device is the I²C device, use -1 to use the first available device.
	Device int

	// Addr is the I²C address.
	Addr uint8

	// Reset pin, optional.
	Reset gpio.PinOut
}

var DefaultI2CConfig = I2CConfig{
	Device: -1,
	Addr:   0x3c,
}

type i2cConn struct {
	c     conn.Conn
	reset gpio.PinOut
}

// OpenI2C opens the I²C bus from the host registry.
func OpenI2C(config *I2CConfig) (Conn, error) {
	if config == nil {
		config = new(I2CConfig)
		*config = DefaultI2CConfig
	}
	if config.Addr == 0 {
		config.Addr = DefaultI2CConfig.Addr
	}

	c, err := bus.OpenI2C(config.Device, config.Addr)
	if err != nil {
		return nil, err
	}
	return NewI2C(c, config.Reset), nil
}

// NewI2C uses an addressed I²C device, such as an [i2c.Dev].
func NewI2C(c conn.Conn, reset gpio.PinOut) Conn {
	return &i2cConn{
		c:     c,
		reset: reset,
	}
}

// NewI2CDev addresses the device at addr on b.
func NewI2CDev(b i2c.Bus, addr uint16, reset gpio.PinOut) Conn {
	return NewI2C(&i2c.Dev{Bus: b, Addr: addr}, reset)
}

func (c *i2cConn) String() string {
	return fmt.Sprintf("I²C %s", c.c)
}

func (c *i2cConn) Close() error {
	if closer, ok := c.c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *i2cConn) Reset(level gpio.Level) error {
	if c.reset == nil || c.reset == gpio.INVALID {
		return nil
	}
	return c.reset.Out(level)
}

// Command prefixes the command and every argument with the command framing byte.
func (c *i2cConn) Command(command byte, args ...byte) error {
	frame := make([]byte, 0, 2+2*len(args))
	frame = append(frame, i2cCommandPrefix, command)
	for _, arg := range args {
		frame = append(frame, i2cCommandPrefix, arg)
	}
	return c.c.Tx(frame, nil)
}

func (c *i2cConn) Data(data ...byte) error {
	return c.c.Tx(append([]byte{i2cDataPrefix}, data...), nil)
}

// WriteCommands sends a sequence of commands as one transfer, only the command bytes carry the
// framing byte.
func (c *i2cConn) WriteCommands(commands ...[]byte) error {
	var frame []byte
	for _, command := range commands {
		if len(command) == 0 {
			continue
		}
		frame = append(frame, i2cCommandPrefix)
		frame = append(frame, command...)
	}
	if len(frame) == 0 {
		return nil
	}
	return c.c.Tx(frame, nil)
}

func (c *i2cConn) DataPrefix() byte {
	return i2cDataPrefix
}

func (c *i2cConn) WriteFrame(frame []byte) error {
	return c.c.Tx(frame, nil)
}

// SPIConfig describes the SPI bus configuration.
type SPIConfig struct {
	// Bus number, use -1 for the first available bus.
	Bus int

	// Device number on the bus, usually the hardware chip select.
	Device int

	// Mode of the bus.
	Mode bus.SPIMode

	// Speed of the bus.
	Speed physic.Frequency

	// BatchSize is the maximum size of one bus transfer.
	BatchSize int

	// Reset pin.
	Reset gpio.PinOut

	// DC is the data/command pin.
	DC gpio.PinOut

	// CS is the chip select pin, leave nil if the bus asserts chip select.
	CS gpio.PinOut
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Bus:       0,
	Device:    0,
	Mode:      bus.SPIMode0,
	Speed:     8 * physic.MegaHertz,
	BatchSize: 4096,
	Reset:     gpioreg.ByName("GPIO25"),
	DC:        gpioreg.ByName("GPIO24"),
}

type spiConn struct {
	c         conn.Conn
	reset     gpio.PinOut
	dc        gpio.PinOut
	cs        gpio.PinOut
	batchSize int
}

// OpenSPI opens the SPI bus from the host registry.
func OpenSPI(config *SPIConfig) (Conn, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}

	if config.Reset == nil || config.Reset == gpio.INVALID {
		return nil, ErrResetPin
	}
	if config.DC == nil || config.DC == gpio.INVALID {
		return nil, ErrDCPin
	}
	if config.Speed == 0 {
		config.Speed = DefaultSPIConfig.Speed
	}

	c, err := bus.OpenSPI(config.Bus, config.Device, config.Speed, config.Mode)
	if err != nil {
		return nil, err
	}

	s, err := NewSPI(c, config.DC, config.CS, config.Reset)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	s.(*spiConn).batchSize = config.BatchSize
	return s, nil
}

// NewSPI uses a connected SPI device. The data/command pin is required, the chip select pin
// and reset pin are optional.
func NewSPI(c conn.Conn, dc, cs, reset gpio.PinOut) (Conn, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, ErrDCPin
	}
	if cs == gpio.INVALID {
		cs = nil
	}
	return &spiConn{
		c:         c,
		reset:     reset,
		dc:        dc,
		cs:        cs,
		batchSize: DefaultSPIConfig.BatchSize,
	}, nil
}

func (c *spiConn) String() string {
	return fmt.Sprintf("SPI %s", c.c)
}

func (c *spiConn) Close() error {
	if closer, ok := c.c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *spiConn) Reset(level gpio.Level) error {
	if c.reset == nil || c.reset == gpio.INVALID {
		return nil
	}
	return c.reset.Out(level)
}

// Command sends the command byte with DC low, the arguments follow as data.
func (c *spiConn) Command(command byte, args ...byte) error {
	if err := c.transaction(gpio.Low, []byte{command}); err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return c.transaction(gpio.High, args)
}

func (c *spiConn) Data(data ...byte) error {
	return c.transaction(gpio.High, data)
}

// transaction sets the data/command pin and holds chip select for the whole transfer. Chip
// select is released on every return path, also for empty transfers.
func (c *spiConn) transaction(dc gpio.Level, data []byte) (err error) {
	if err = c.dc.Out(dc); err != nil {
		return
	}
	if err = c.selectChip(gpio.Low); err != nil {
		return
	}
	defer func() {
		if releaseErr := c.selectChip(gpio.High); err == nil {
			err = releaseErr
		}
	}()
	return c.writeChunked(data)
}

func (c *spiConn) selectChip(level gpio.Level) error {
	if c.cs == nil {
		return nil
	}
	return c.cs.Out(level)
}

func (c *spiConn) writeChunked(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	batchSize := c.batchSize
	if batchSize <= 0 {
		batchSize = DefaultSPIConfig.BatchSize
	}
	if len(data) > batchSize {
		debugf("panel: write %d bytes of data in %d chunks", len(data), (len(data)+batchSize-1)/batchSize)
	}
	for len(data) > 0 {
		n := min(len(data), batchSize)
		if err := c.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Interface checks.
var (
	_ Conn   = (*i2cConn)(nil)
	_ Framer = (*i2cConn)(nil)
	_ Conn   = (*spiConn)(nil)
)
