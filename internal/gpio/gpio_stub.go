//go:build !linux

package gpio

import "fmt"

type Output struct{}

type Input struct{}

// Stub implementation for non-Linux platforms.
func OpenOutput(opts Options) (*Output, error) {
	return nil, fmt.Errorf("gpio: unsupported on this platform")
}

func OpenInput(opts Options) (*Input, error) {
	return nil, fmt.Errorf("gpio: unsupported on this platform")
}

func (o *Output) Set(on bool) error   { return fmt.Errorf("gpio: unsupported") }
func (o *Output) Close() error        { return nil }
func (i *Input) Level() (bool, error) { return false, fmt.Errorf("gpio: unsupported") }
func (i *Input) Close() error         { return nil }
