package bus

import (
	"fmt"
	"strconv"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// I2C is a single device on an I²C bus.
type I2C struct {
	bus  i2c.BusCloser
	conn conn.Conn
	addr uint8
}

// OpenI2C opens the numbered I²C bus and addresses the device at addr. Use a negative device
// number to open the first available bus.
func OpenI2C(device int, addr uint8) (*I2C, error) {
	var (
		bus i2c.BusCloser
		err error
	)
	if device < 0 {
		bus, err = i2creg.Open("")
	} else {
		bus, err = i2creg.Open(strconv.FormatInt(int64(device), 10))
	}
	if err != nil {
		return nil, err
	}

	return &I2C{
		bus:  bus,
		conn: &i2c.Dev{Bus: bus, Addr: uint16(addr)},
		addr: addr,
	}, nil
}

func (c *I2C) String() string {
	return fmt.Sprintf("I²C bus %s addr %#02x", c.bus, c.addr)
}

func (c *I2C) Close() error {
	return c.bus.Close()
}

// Tx implements conn.Conn.
func (c *I2C) Tx(w, r []byte) error {
	return c.conn.Tx(w, r)
}

// Duplex implements conn.Conn.
func (c *I2C) Duplex() conn.Duplex {
	return conn.Half
}

func (c *I2C) Write(p []byte) (int, error) {
	return len(p), c.conn.Tx(p, nil)
}

var _ conn.Conn = (*I2C)(nil)
