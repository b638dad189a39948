package eeprom

import (
	"fmt"
	"time"

	"boilerctl/internal/i2c"
)

// DefaultAT24Addr is the 7-bit bus address of a 24Cxx with A0..A2 tied low.
const DefaultAT24Addr = 0x50

// writeCycle is the worst-case internal write time (tWR) of a 24C02.
const writeCycle = 5 * time.Millisecond

type byteDev interface {
	Write(p []byte) error
	WriteRead(w, r []byte) error
}

// AT24 is a 24C01/24C02 serial EEPROM with one-byte word addresses.
type AT24 struct {
	dev   byteDev
	size  int
	sleep func(time.Duration)
}

// NewAT24 wraps a device on an open bus. size is 128 or 256.
func NewAT24(dev *i2c.Dev, size int) (*AT24, error) {
	if dev == nil {
		return nil, fmt.Errorf("eeprom: i2c device is nil")
	}
	return newAT24(dev, size)
}

func newAT24(dev byteDev, size int) (*AT24, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > 256 {
		return nil, fmt.Errorf("eeprom: size %d needs two-byte addressing", size)
	}
	return &AT24{dev: dev, size: size, sleep: time.Sleep}, nil
}

func (e *AT24) Get(addr int) (byte, error) {
	if addr < 0 || addr >= e.size {
		return 0, fmt.Errorf("%w: %d", ErrAddress, addr)
	}
	var b [1]byte
	if err := e.dev.WriteRead([]byte{byte(addr)}, b[:]); err != nil {
		return 0, fmt.Errorf("eeprom: read %d: %w", addr, err)
	}
	return b[0], nil
}

// Put writes v unless the cell already holds it, then waits out the write
// cycle so the next access is acknowledged.
func (e *AT24) Put(addr int, v byte) error {
	cur, err := e.Get(addr)
	if err != nil {
		return err
	}
	if cur == v {
		return nil
	}
	if err := e.dev.Write([]byte{byte(addr), v}); err != nil {
		return fmt.Errorf("eeprom: write %d: %w", addr, err)
	}
	e.sleep(writeCycle)
	return nil
}
