package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_StartupAverageIsZeroPadded(t *testing.T) {
	s := newTestSampler(t, &fakeSensor{values: []float64{90}}, PolicySubstitute)
	var st ControllerState

	require.True(t, s.Sample(&st, at(0)))
	assert.Equal(t, 22.5, st.Filtered)
	assert.Equal(t, 90.0, st.Accepted)
}

func TestSampler_AverageOfLastFourAcceptedSamples(t *testing.T) {
	s := newTestSampler(t, &fakeSensor{values: []float64{80, 90, 100, 110, 120}}, PolicySubstitute)
	var st ControllerState

	for i := 0; i < 5; i++ {
		require.True(t, s.Sample(&st, at(i*250)))
	}
	assert.Equal(t, (90.0+100+110+120)/4, st.Filtered)
	assert.Equal(t, uint64(5), st.Reads)
}

func TestSampler_RateLimitsSensorReads(t *testing.T) {
	sensor := &fakeSensor{values: []float64{93}}
	s := newTestSampler(t, sensor, PolicySubstitute)
	var st ControllerState

	var readAt []int
	for ms := 0; ms <= 2000; ms += 7 {
		if s.Sample(&st, at(ms)) {
			readAt = append(readAt, ms)
		}
	}
	require.Equal(t, len(readAt), sensor.reads)
	require.NotEmpty(t, readAt)
	assert.Equal(t, 0, readAt[0])
	for i := 1; i < len(readAt); i++ {
		assert.GreaterOrEqual(t, readAt[i]-readAt[i-1], 250, "reads %d and %d too close", i-1, i)
	}
}

func TestSampler_InvalidReadingSubstitutesCeiling(t *testing.T) {
	for _, raw := range []float64{math.NaN(), 0, 170.25, 400} {
		s := newTestSampler(t, &fakeSensor{values: []float64{raw}}, PolicySubstitute)
		var st ControllerState

		s.Sample(&st, at(0))
		assert.Equal(t, FaultCeilingC, st.Accepted, "raw=%v", raw)
		assert.True(t, st.SensorFault, "raw=%v", raw)
		assert.False(t, st.Halted, "raw=%v", raw)
	}
}

func TestSampler_SensorErrorIsAFault(t *testing.T) {
	s := newTestSampler(t, &fakeSensor{values: []float64{93}, errs: []error{errBoom}}, PolicySubstitute)
	var st ControllerState

	s.Sample(&st, at(0))
	assert.True(t, math.IsNaN(st.Raw))
	assert.True(t, st.SensorFault)

	s.Sample(&st, at(250))
	assert.False(t, st.SensorFault)
	assert.Equal(t, 93.0, st.Raw)
}

func TestSampler_HaltPolicyDoesNotPushInvalidReading(t *testing.T) {
	s := newTestSampler(t, &fakeSensor{values: []float64{90, math.NaN(), 90}}, PolicyHalt)
	var st ControllerState

	s.Sample(&st, at(0))
	s.Sample(&st, at(250))
	assert.True(t, st.Halted)
	assert.Equal(t, 22.5, st.Filtered)
	assert.Equal(t, 90.0, st.Accepted)

	s.Sample(&st, at(500))
	assert.True(t, st.Halted)
	assert.Equal(t, 45.0, st.Filtered)
}

func TestValid(t *testing.T) {
	cases := []struct {
		v    float64
		want bool
	}{
		{math.NaN(), false},
		{0, false},
		{0.25, true},
		{93, true},
		{170, true},
		{170.01, false},
		{-5, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Valid(tc.v), "Valid(%v)", tc.v)
	}
}
