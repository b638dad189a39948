package control

import (
	"time"

	"go.uber.org/zap"
)

// RelayDriver is the only writer of the heater output line.
type RelayDriver struct {
	out     Output
	log     *zap.Logger
	lastErr bool
}

func newRelayDriver(out Output, log *zap.Logger) *RelayDriver {
	return &RelayDriver{out: out, log: log}
}

// Tick drives the relay for this tick: on for the leading OnTime of the
// window, off for the rest, and always off when safe is false. The line is
// written on every call.
func (r *RelayDriver) Tick(st *ControllerState, now time.Time, safe bool) bool {
	on := safe && st.OnTime > now.Sub(st.WindowStart)
	r.set(on)
	st.Relay = on
	return on
}

// Off forces the line low.
func (r *RelayDriver) Off(st *ControllerState) {
	r.set(false)
	st.Relay = false
}

func (r *RelayDriver) set(on bool) {
	err := r.out.Set(on)
	if err != nil && !r.lastErr {
		r.log.Error("relay write failed", zap.Bool("on", on), zap.Error(err))
	}
	if err == nil && r.lastErr {
		r.log.Info("relay write recovered")
	}
	r.lastErr = err != nil
}
