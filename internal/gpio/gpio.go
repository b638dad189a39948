// Package gpio provides the relay output and the front-panel input lines.
//
// On Linux the lines are requested from the GPIO character device; other
// platforms get a stub that fails to open. Static and Multi work everywhere.
package gpio

import "errors"

// Options selects a GPIO line.
//
// If Chip is set, Offset is used directly on that chip. Otherwise the line
// named "GPIO<Pin>" (BCM numbering, as exposed on Raspberry Pi) is searched
// across the available chips.
type Options struct {
	Pin       int
	Chip      string
	Offset    int
	ActiveLow bool
	PullUp    bool
	Consumer  string
}

// Configured reports whether the options name a line at all.
func (o Options) Configured() bool {
	return o.Pin > 0 || o.Chip != ""
}

func (o Options) consumer() string {
	if o.Consumer != "" {
		return o.Consumer
	}
	return "boilerctl"
}

// Static is an input with a fixed level, used for inputs that are not wired.
type Static bool

func (s Static) Level() (bool, error) { return bool(s), nil }

// Setter is anything that accepts an on/off level.
type Setter interface {
	Set(on bool) error
}

// Multi forwards every Set to all outputs and joins their errors.
type Multi []Setter

func (m Multi) Set(on bool) error {
	var errs []error
	for _, o := range m {
		if err := o.Set(on); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
