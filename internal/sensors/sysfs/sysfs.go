// Package sysfs reads temperatures published by kernel drivers.
//
// hwmon exposes a milli-degree integer (temp1_input). IIO thermocouple
// drivers such as maxim_thermocouple expose in_temp_raw and in_temp_scale,
// whose product is milli-degrees.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sensor reads one kernel temperature source.
type Sensor struct {
	input string // hwmon milli-degree file

	rawPath   string // IIO raw counts
	scalePath string
	scale     float64
}

// NewHwmon reads a milli-degree file such as
// /sys/class/hwmon/hwmon2/temp1_input.
func NewHwmon(path string) *Sensor {
	return &Sensor{input: path}
}

// NewIIO reads in_temp_raw scaled by in_temp_scale from an IIO device
// directory such as /sys/bus/iio/devices/iio:device0. The scale is read once.
func NewIIO(dir string) (*Sensor, error) {
	s := &Sensor{
		rawPath:   filepath.Join(dir, "in_temp_raw"),
		scalePath: filepath.Join(dir, "in_temp_scale"),
	}
	b, err := os.ReadFile(s.scalePath)
	if err != nil {
		return nil, fmt.Errorf("read iio scale: %w", err)
	}
	scale, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return nil, fmt.Errorf("parse iio scale %q: %w", strings.TrimSpace(string(b)), err)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("iio scale %v must be > 0", scale)
	}
	s.scale = scale
	return s, nil
}

func (s *Sensor) ReadCelsius() (float64, error) {
	if s.input != "" {
		return readMilliC(s.input)
	}
	b, err := os.ReadFile(s.rawPath)
	if err != nil {
		return 0, fmt.Errorf("read iio raw: %w", err)
	}
	raw, err := parseInt(string(b))
	if err != nil {
		return 0, err
	}
	return float64(raw) * s.scale / 1000.0, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("temperature empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse temperature %q: %w", s, err)
	}
	return n, nil
}

func readMilliC(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read temperature: %w", err)
	}
	n, err := parseInt(string(b))
	if err != nil {
		return 0, err
	}
	return float64(n) / 1000.0, nil
}
