package control

import "time"

// pid is a positional PID with output limits.
//
// The integral accumulator lives inside [lo, hi], so a long cold start
// cannot wind it past the window. The derivative is taken on the measured
// temperature; a mode change moves the setpoint without an output spike.
type pid struct {
	kp, ki, kd float64
	lo, hi     float64

	iterm  float64
	last   float64
	primed bool
}

func newPID(kp, ki, kd, lo, hi float64) *pid {
	return &pid{kp: kp, ki: ki, kd: kd, lo: lo, hi: hi}
}

// step advances the loop by dt and returns the limited output. A
// non-positive dt leaves the state untouched and yields 0.
func (p *pid) step(setpoint, input float64, dt time.Duration) float64 {
	if dt <= 0 {
		return 0
	}
	s := dt.Seconds()
	e := setpoint - input

	p.iterm = clamp(p.iterm+p.ki*e*s, p.lo, p.hi)

	var dInput float64
	if p.primed {
		dInput = (input - p.last) / s
	}
	p.last, p.primed = input, true

	return clamp(p.kp*e+p.iterm-p.kd*dInput, p.lo, p.hi)
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
