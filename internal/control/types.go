// Package control implements the boiler temperature-control loop: rate
// limited thermocouple sampling with a moving average, a PID controller that
// is evaluated once per time-proportioning window, the relay driver, the
// espresso/steam mode controller and the safety gate in front of the relay.
//
// Everything in this package runs on a single goroutine. Components keep no
// shared state of their own; the values they exchange live in one
// ControllerState owned by the Controller.
package control

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultSampleInterval is the minimum spacing of real sensor reads.
	// MAX6675-class converters return stale data when polled faster.
	DefaultSampleInterval = 250 * time.Millisecond
	DefaultFilterSize     = 4

	// FaultCeilingC is the highest reading accepted from the sensor. It is
	// also the sentinel pushed in place of an invalid reading.
	FaultCeilingC = 170.0

	DefaultWindow   = 1000 * time.Millisecond
	DefaultMinCycle = 20 * time.Millisecond

	PlausibleMinC = 1.0
	PlausibleMaxC = 140.0

	DefaultAdjustInterval = 100 * time.Millisecond
	DefaultTickInterval   = 10 * time.Millisecond

	DefaultKp = 800.0
	DefaultKi = 0.0
	DefaultKd = 0.0

	DefaultEspressoSetpoint byte = 93
	DefaultSteamSetpoint    byte = 93
	DefaultMinSetpoint      byte = 50
	DefaultMaxSetpoint      byte = 150
)

// Store addresses of the persisted per-mode setpoints.
const (
	AddrEspressoSetpoint = 0
	AddrSteamSetpoint    = 1
)

// Sensor is the thermocouple. Implementations may return NaN or an error on
// fault; both are treated as an invalid reading.
type Sensor interface {
	ReadCelsius() (float64, error)
}

// Input is a digital input line.
type Input interface {
	Level() (bool, error)
}

// Output is a digital output line.
type Output interface {
	Set(on bool) error
}

// Store is a byte-addressed persistent store.
type Store interface {
	Get(addr int) (byte, error)
	Put(addr int, v byte) error
}

// Display receives the human readable status once per tick.
type Display interface {
	Show(Status)
}

// Recorder receives one diagnostic record per tick.
type Recorder interface {
	Record(Record) error
}

type Mode int

const (
	ModeEspresso Mode = iota
	ModeSteam
)

func (m Mode) String() string {
	switch m {
	case ModeEspresso:
		return "ESPRESSO"
	case ModeSteam:
		return "STEAM"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Other returns the mode a toggle switches to.
func (m Mode) Other() Mode {
	if m == ModeSteam {
		return ModeEspresso
	}
	return ModeSteam
}

func (m Mode) addr() int {
	if m == ModeSteam {
		return AddrSteamSetpoint
	}
	return AddrEspressoSetpoint
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "espresso":
		return ModeEspresso, nil
	case "steam":
		return ModeSteam, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// FaultPolicy selects what happens on an invalid sensor reading.
type FaultPolicy int

const (
	// PolicySubstitute pushes FaultCeilingC into the filter and keeps running;
	// the relay is held off until readings recover.
	PolicySubstitute FaultPolicy = iota
	// PolicyHalt latches the controller off until restart.
	PolicyHalt
)

func (p FaultPolicy) String() string {
	switch p {
	case PolicySubstitute:
		return "substitute"
	case PolicyHalt:
		return "halt"
	default:
		return fmt.Sprintf("FaultPolicy(%d)", int(p))
	}
}

func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substitute":
		return PolicySubstitute, nil
	case "halt":
		return PolicyHalt, nil
	default:
		return 0, fmt.Errorf("unknown fault policy %q", s)
	}
}

// ModeInput selects how the mode input line is interpreted.
type ModeInput int

const (
	// ModeInputToggle flips the mode on each rising edge of a momentary button.
	ModeInputToggle ModeInput = iota
	// ModeInputSwitch follows the level of a latching switch.
	ModeInputSwitch
)

func (m ModeInput) String() string {
	switch m {
	case ModeInputToggle:
		return "toggle"
	case ModeInputSwitch:
		return "switch"
	default:
		return fmt.Sprintf("ModeInput(%d)", int(m))
	}
}

func ParseModeInput(s string) (ModeInput, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "toggle":
		return ModeInputToggle, nil
	case "switch":
		return ModeInputSwitch, nil
	default:
		return 0, fmt.Errorf("unknown mode input %q", s)
	}
}

// Fault is the reason the safety gate is holding the relay off.
type Fault int

const (
	FaultNone Fault = iota
	FaultSensor
	FaultTooCold
	FaultTooHot
	FaultHalted
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultSensor:
		return "sensor"
	case FaultTooCold:
		return "too_cold"
	case FaultTooHot:
		return "too_hot"
	case FaultHalted:
		return "halted"
	default:
		return fmt.Sprintf("Fault(%d)", int(f))
	}
}

// Status is what a front panel shows.
type Status struct {
	Temperature float64
	Mode        Mode
	Setpoint    float64
	Heating     bool
	Fault       Fault
}

// Record is one line of the diagnostic stream.
type Record struct {
	Temperature float64
	// Power is the PID on-time as a percentage of the window.
	Power    float64
	Setpoint float64
}
