package control

import (
	"fmt"
	"time"
)

// Config parameterizes the control loop. Zero values are replaced by the
// package defaults.
type Config struct {
	Kp, Ki, Kd float64
	// GainsSet keeps an explicit all-zero gain set from being defaulted.
	GainsSet bool

	Window         time.Duration
	MinCycle       time.Duration
	SampleInterval time.Duration
	FilterSize     int
	TickInterval   time.Duration

	FaultPolicy FaultPolicy

	ModeInput      ModeInput
	InvertMode     bool
	Debounce       time.Duration
	AdjustInterval time.Duration
	InitialMode    Mode

	DefaultEspresso byte
	DefaultSteam    byte
	MinSetpoint     byte
	MaxSetpoint     byte
}

func (c Config) withDefaults() Config {
	if !c.GainsSet && c.Kp == 0 && c.Ki == 0 && c.Kd == 0 {
		c.Kp, c.Ki, c.Kd = DefaultKp, DefaultKi, DefaultKd
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.MinCycle <= 0 {
		c.MinCycle = DefaultMinCycle
	}
	if c.SampleInterval <= 0 {
		c.SampleInterval = DefaultSampleInterval
	}
	if c.FilterSize <= 0 {
		c.FilterSize = DefaultFilterSize
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.AdjustInterval <= 0 {
		c.AdjustInterval = DefaultAdjustInterval
	}
	if c.MinSetpoint == 0 && c.MaxSetpoint == 0 {
		c.MinSetpoint, c.MaxSetpoint = DefaultMinSetpoint, DefaultMaxSetpoint
	}
	if c.DefaultEspresso == 0 {
		c.DefaultEspresso = DefaultEspressoSetpoint
	}
	if c.DefaultSteam == 0 {
		c.DefaultSteam = DefaultSteamSetpoint
	}
	return c
}

func (c Config) validate() error {
	if c.MinSetpoint > c.MaxSetpoint {
		return fmt.Errorf("control: min setpoint %d above max setpoint %d", c.MinSetpoint, c.MaxSetpoint)
	}
	if c.MinCycle > c.Window {
		return fmt.Errorf("control: min cycle %s longer than window %s", c.MinCycle, c.Window)
	}
	if c.Kp < 0 || c.Ki < 0 || c.Kd < 0 {
		return fmt.Errorf("control: pid gains must be >= 0")
	}
	return nil
}
