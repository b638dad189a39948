package control

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

var t0 = time.Unix(1_700_000_000, 0)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

type fakeSensor struct {
	values []float64
	errs   []error
	reads  int
}

func (s *fakeSensor) ReadCelsius() (float64, error) {
	i := s.reads
	s.reads++
	if i < len(s.errs) && s.errs[i] != nil {
		return 0, s.errs[i]
	}
	if len(s.values) == 0 {
		return math.NaN(), nil
	}
	if i >= len(s.values) {
		return s.values[len(s.values)-1], nil
	}
	return s.values[i], nil
}

type fakeOutput struct {
	writes []bool
	err    error
}

func (o *fakeOutput) Set(on bool) error {
	o.writes = append(o.writes, on)
	return o.err
}

func (o *fakeOutput) last() bool {
	if len(o.writes) == 0 {
		return false
	}
	return o.writes[len(o.writes)-1]
}

type fakeInput struct {
	level bool
	err   error
}

func (i *fakeInput) Level() (bool, error) { return i.level, i.err }

type memStore struct {
	data   map[int]byte
	puts   int
	putErr error
	getErr error
}

func newMemStore() *memStore { return &memStore{data: map[int]byte{}} }

func (m *memStore) Get(addr int) (byte, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	v, ok := m.data[addr]
	if !ok {
		return 0xFF, nil
	}
	return v, nil
}

func (m *memStore) Put(addr int, v byte) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.data[addr] = v
	return nil
}

type fakeDisplay struct{ shown []Status }

func (d *fakeDisplay) Show(s Status) { d.shown = append(d.shown, s) }

type fakeRecorder struct {
	records []Record
	err     error
}

func (r *fakeRecorder) Record(rec Record) error {
	r.records = append(r.records, rec)
	return r.err
}

var errBoom = errors.New("boom")

func newTestSampler(t *testing.T, sensor Sensor, policy FaultPolicy) *Sampler {
	t.Helper()
	log := zaptest.NewLogger(t)
	return newSampler(sensor, newSafetyMonitor(policy, log), DefaultSampleInterval, DefaultFilterSize, log)
}
