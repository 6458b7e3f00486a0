package bus

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

type SPIMode = spi.Mode

const (
	SPIMode0 = spi.Mode0 // CPOL=0, CPHA=0
	SPIMode1 = spi.Mode1 // CPOL=0, CPHA=1
	SPIMode2 = spi.Mode2 // CPOL=1, CPHA=0
	SPIMode3 = spi.Mode3 // CPOL=1, CPHA=1
)

// SPI is a connected SPI port.
type SPI struct {
	port  spi.PortCloser
	conn  spi.Conn
	name  string
	speed physic.Frequency
	mode  SPIMode
}

// OpenSPI opens the numbered SPI bus with the numbered device. The device often corresponds to
// the CS pin for that bus. Use a negative bus number to open the first available port.
func OpenSPI(bus, device int, speed physic.Frequency, mode SPIMode) (*SPI, error) {
	var name string
	if bus >= 0 {
		name = fmt.Sprintf("SPI%d.%d", bus, device)
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, err
	}
	return ConnectSPI(port, speed, mode)
}

// ConnectSPI connects to an already opened port with 8 bits per word.
func ConnectSPI(port spi.PortCloser, speed physic.Frequency, mode SPIMode) (*SPI, error) {
	c, err := port.Connect(speed, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("bus: SPI connect at %s %s: %w", speed, mode, err)
	}
	return &SPI{
		port:  port,
		conn:  c,
		name:  port.String(),
		speed: speed,
		mode:  mode,
	}, nil
}

func (c *SPI) Close() error {
	return c.port.Close()
}

func (c *SPI) String() string {
	return fmt.Sprintf("SPI %s %s max speed=%s", c.name, c.mode, c.speed)
}

func (c *SPI) Mode() SPIMode {
	return c.mode
}

func (c *SPI) MaxSpeed() physic.Frequency {
	return c.speed
}

// Tx implements conn.Conn.
func (c *SPI) Tx(w, r []byte) error {
	return c.conn.Tx(w, r)
}

// Duplex implements conn.Conn.
func (c *SPI) Duplex() conn.Duplex {
	return c.conn.Duplex()
}

func (c *SPI) Write(b []byte) (n int, err error) {
	return len(b), c.conn.Tx(b, nil)
}

var _ conn.Conn = (*SPI)(nil)
