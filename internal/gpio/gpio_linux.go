//go:build linux

package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// Output drives one line as a digital output. It starts deasserted.
type Output struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// Input reads one line as a digital input.
type Input struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func OpenOutput(opts Options) (*Output, error) {
	chip, line, err := requestLine(opts, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &Output{chip: chip, line: line}, nil
}

func OpenInput(opts Options) (*Input, error) {
	extra := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	if opts.PullUp {
		extra = append(extra, gpiocdev.WithPullUp)
	}
	chip, line, err := requestLine(opts, extra...)
	if err != nil {
		return nil, err
	}
	return &Input{chip: chip, line: line}, nil
}

func requestLine(opts Options, extra ...gpiocdev.LineReqOption) (*gpiocdev.Chip, *gpiocdev.Line, error) {
	reqOpts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(opts.consumer())}
	if opts.ActiveLow {
		reqOpts = append(reqOpts, gpiocdev.AsActiveLow)
	}
	reqOpts = append(reqOpts, extra...)

	if opts.Chip != "" {
		chip, err := gpiocdev.NewChip(opts.Chip)
		if err != nil {
			return nil, nil, fmt.Errorf("gpio: open chip %s: %w", opts.Chip, err)
		}
		line, err := chip.RequestLine(opts.Offset, reqOpts...)
		if err != nil {
			_ = chip.Close()
			return nil, nil, fmt.Errorf("gpio: request %s line %d: %w", opts.Chip, opts.Offset, err)
		}
		return chip, line, nil
	}

	if opts.Pin <= 0 {
		return nil, nil, fmt.Errorf("gpio: invalid gpio pin %d", opts.Pin)
	}

	// On Pi, line names are commonly "GPIO18", etc.
	lineName := fmt.Sprintf("GPIO%d", opts.Pin)

	// Pi 5 kernels may put the header on gpiochip4; try the usual chips first.
	for _, chipPath := range chipCandidates() {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, reqOpts...)
		if err != nil {
			_ = chip.Close()
			continue
		}
		return chip, line, nil
	}
	return nil, nil, fmt.Errorf("gpio: line %q not found (or busy)", lineName)
}

var devDir = "/dev"

func chipCandidates() []string {
	out := []string{filepath.Join(devDir, "gpiochip0"), filepath.Join(devDir, "gpiochip4")}
	entries, _ := os.ReadDir(devDir)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "gpiochip") {
			continue
		}
		p := filepath.Join(devDir, name)
		if !contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func (o *Output) Set(on bool) error {
	if o == nil || o.line == nil {
		return fmt.Errorf("gpio: output not initialized")
	}
	v := 0
	if on {
		v = 1
	}
	return o.line.SetValue(v)
}

// Close deasserts the line before releasing it.
func (o *Output) Close() error {
	if o == nil || o.line == nil {
		return nil
	}
	_ = o.line.SetValue(0)
	err := o.line.Close()
	o.line = nil
	if o.chip != nil {
		_ = o.chip.Close()
		o.chip = nil
	}
	return err
}

func (i *Input) Level() (bool, error) {
	if i == nil || i.line == nil {
		return false, fmt.Errorf("gpio: input not initialized")
	}
	v, err := i.line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (i *Input) Close() error {
	if i == nil || i.line == nil {
		return nil
	}
	err := i.line.Close()
	i.line = nil
	if i.chip != nil {
		_ = i.chip.Close()
		i.chip = nil
	}
	return err
}
