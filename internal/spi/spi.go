// Package spi is a small SPI master for Linux spidev devices.
package spi

// Config holds the transfer parameters applied when the bus is opened.
type Config struct {
	Mode        uint8
	BitsPerWord uint8
	SpeedHz     uint32
}

func (c Config) withDefaults() Config {
	if c.BitsPerWord == 0 {
		c.BitsPerWord = 8
	}
	if c.SpeedHz == 0 {
		c.SpeedHz = 4_000_000
	}
	return c
}
