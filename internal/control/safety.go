package control

import "go.uber.org/zap"

// SafetyMonitor gates the relay. It combines the fault-on-read guard fed by
// the Sampler with a plausibility clamp on the filtered temperature.
//
// Under PolicyHalt the first invalid reading latches Halted; nothing clears
// it short of a restart.
type SafetyMonitor struct {
	policy   FaultPolicy
	min, max float64
	log      *zap.Logger
}

func newSafetyMonitor(policy FaultPolicy, log *zap.Logger) *SafetyMonitor {
	return &SafetyMonitor{policy: policy, min: PlausibleMinC, max: PlausibleMaxC, log: log}
}

// readFault records an invalid reading and returns the value to push into the
// filter, if any.
func (m *SafetyMonitor) readFault(st *ControllerState, raw float64) (substitute float64, push bool) {
	if !st.SensorFault {
		m.log.Warn("invalid sensor reading", zap.Float64("raw_c", raw), zap.Stringer("policy", m.policy))
	}
	st.SensorFault = true

	if m.policy == PolicyHalt {
		if !st.Halted {
			m.log.Error("sensor fault, heater halted until restart", zap.Float64("raw_c", raw))
		}
		st.Halted = true
		return 0, false
	}
	return FaultCeilingC, true
}

func (m *SafetyMonitor) readOK(st *ControllerState) {
	if st.SensorFault && !st.Halted {
		m.log.Info("sensor readings recovered", zap.Float64("raw_c", st.Raw))
	}
	st.SensorFault = false
}

// Evaluate decides whether the relay may follow the PID this tick and stores
// the verdict in st.
func (m *SafetyMonitor) Evaluate(st *ControllerState) (bool, Fault) {
	f := m.check(st)
	if f != st.Fault && f != FaultHalted && f != FaultNone {
		m.log.Warn("relay held off", zap.Stringer("fault", f),
			zap.Float64("filtered_c", st.Filtered), zap.Float64("sample_c", st.Accepted))
	}
	st.Fault = f
	st.Safe = f == FaultNone
	return st.Safe, f
}

func (m *SafetyMonitor) check(st *ControllerState) Fault {
	if st.Halted {
		return FaultHalted
	}
	if st.SensorFault {
		return FaultSensor
	}
	if st.Filtered > m.max {
		return FaultTooHot
	}
	if st.Filtered < m.min {
		return FaultTooCold
	}
	return FaultNone
}
