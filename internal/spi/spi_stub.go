//go:build !linux

package spi

import "fmt"

type Bus struct{}

func Open(path string, cfg Config) (*Bus, error) {
	return nil, fmt.Errorf("spi: unsupported OS (need linux)")
}

func (b *Bus) Close() error         { return nil }
func (b *Bus) Tx(w, r []byte) error { return fmt.Errorf("spi: unsupported OS") }
