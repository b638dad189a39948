package max6675

import (
	"fmt"
	"math"

	"boilerctl/internal/spi"
)

// Minimal MAX6675 cold-junction-compensated K-type thermocouple driver.
//
// The chip shifts out one 16-bit frame per chip-select cycle:
//   bit 15     dummy sign bit, always 0
//   bits 14..3 temperature, 0.25 degC per LSB
//   bit 2      thermocouple input open
//   bit 1      device ID, always 0
// A conversion takes up to 220ms; reading faster returns the previous one.

const (
	bitOpen   = 0x0004
	bitSign   = 0x8000
	degPerLSB = 0.25
)

type Device struct {
	dev transferer
}

type transferer interface {
	Tx(w, r []byte) error
}

func New(bus *spi.Bus) (*Device, error) {
	if bus == nil {
		return nil, fmt.Errorf("max6675: bus is nil")
	}
	return newWithIO(bus)
}

func newWithIO(dev transferer) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("max6675: bus is nil")
	}
	return &Device{dev: dev}, nil
}

// ReadCelsius returns the thermocouple temperature. An open thermocouple
// reads as NaN with a nil error; bus failures and malformed frames are
// errors.
func (d *Device) ReadCelsius() (float64, error) {
	var buf [2]byte
	if err := d.dev.Tx(nil, buf[:]); err != nil {
		return math.NaN(), fmt.Errorf("max6675: read failed: %w", err)
	}
	return decode(uint16(buf[0])<<8 | uint16(buf[1]))
}

func decode(frame uint16) (float64, error) {
	if frame&bitSign != 0 {
		return math.NaN(), fmt.Errorf("max6675: malformed frame 0x%04X", frame)
	}
	if frame&bitOpen != 0 {
		return math.NaN(), nil
	}
	return float64(frame>>3) * degPerLSB, nil
}
