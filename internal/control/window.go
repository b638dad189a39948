package control

import "time"

// Window runs the PID once per time-proportioning window and converts its
// output to the relay on-time held for the rest of that window.
type Window struct {
	pid      *pid
	size     time.Duration
	minCycle float64 // ms
}

func newWindow(cfg Config) *Window {
	return &Window{
		pid:      newPID(cfg.Kp, cfg.Ki, cfg.Kd, 0, float64(cfg.Window.Milliseconds())),
		size:     cfg.Window,
		minCycle: float64(cfg.MinCycle.Milliseconds()),
	}
}

func (w *Window) Size() time.Duration { return w.size }

// Recompute anchors a new window and evaluates the PID when the current one
// has run its full length. The first call only anchors the window. It reports
// whether a new output was produced.
func (w *Window) Recompute(st *ControllerState, now time.Time) bool {
	if st.WindowStart.IsZero() {
		st.WindowStart = now
		return false
	}
	if now.Sub(st.WindowStart) < w.size {
		return false
	}
	st.WindowStart = now

	out := applyMinCycle(w.pid.step(st.Setpoint, st.Filtered, w.size), w.minCycle)

	st.Output = out
	st.OnTime = time.Duration(out * float64(time.Millisecond))
	return true
}

// applyMinCycle raises a positive output below floor to floor. Relays do not
// switch reliably on shorter pulses.
func applyMinCycle(out, floor float64) float64 {
	if out > 0 && out < floor {
		return floor
	}
	return out
}
