package control

import (
	"math"
	"time"

	"go.uber.org/zap"

	"boilerctl/internal/ring"
)

// Sampler reads the thermocouple no more often than the configured interval
// and keeps the moving average of the accepted samples.
type Sampler struct {
	sensor   Sensor
	safety   *SafetyMonitor
	interval time.Duration
	filter   *ring.Buffer
	log      *zap.Logger
}

func newSampler(sensor Sensor, safety *SafetyMonitor, interval time.Duration, size int, log *zap.Logger) *Sampler {
	return &Sampler{
		sensor:   sensor,
		safety:   safety,
		interval: interval,
		filter:   ring.New(size),
		log:      log,
	}
}

// Sample performs a sensor read if the interval has elapsed since the last
// one (the very first call always reads) and reports whether it did.
func (s *Sampler) Sample(st *ControllerState, now time.Time) bool {
	if st.Reads > 0 && now.Sub(st.LastRead) < s.interval {
		return false
	}
	st.LastRead = now
	st.Reads++

	v, err := s.sensor.ReadCelsius()
	if err != nil {
		s.log.Debug("sensor read failed", zap.Error(err))
		v = math.NaN()
	}
	st.Raw = v

	if Valid(v) {
		s.safety.readOK(st)
	} else {
		sub, push := s.safety.readFault(st, v)
		if !push {
			return true
		}
		v = sub
	}

	s.filter.Push(v)
	st.Accepted = v
	st.Filtered = s.filter.Mean()
	return true
}
