package control

import (
	"math"
	"time"
)

// ControllerState is the whole mutable state of the control loop. It is
// owned by the Controller and handed to each component in tick order.
type ControllerState struct {
	// Sampler.
	Raw      float64 // last raw sensor value, possibly invalid
	Accepted float64 // last value pushed into the filter
	Filtered float64
	LastRead time.Time
	Reads    uint64

	// PID window.
	WindowStart time.Time
	Output      float64 // ms of on-time within the window
	OnTime      time.Duration

	// Mode.
	Mode      Mode
	Setpoints [2]byte // indexed by Mode
	Setpoint  float64

	// Safety.
	SensorFault bool
	Halted      bool
	Safe        bool
	Fault       Fault

	Relay bool
}

// Valid reports whether a raw reading can be used as a temperature.
func Valid(c float64) bool {
	return !math.IsNaN(c) && c != 0 && c <= FaultCeilingC
}

func (st *ControllerState) status() Status {
	return Status{
		Temperature: st.Filtered,
		Mode:        st.Mode,
		Setpoint:    st.Setpoint,
		Heating:     st.Relay,
		Fault:       st.Fault,
	}
}

func (st *ControllerState) record(window time.Duration) Record {
	power := 0.0
	if window > 0 {
		power = st.Output * 100.0 / float64(window.Milliseconds())
	}
	return Record{Temperature: st.Filtered, Power: power, Setpoint: st.Setpoint}
}
