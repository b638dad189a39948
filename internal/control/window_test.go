package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWindow() *Window {
	return newWindow(Config{}.withDefaults())
}

func TestWindow_FirstCallAnchors(t *testing.T) {
	w := newTestWindow()
	st := ControllerState{Setpoint: 93, Filtered: 20}

	assert.False(t, w.Recompute(&st, at(0)))
	assert.Equal(t, at(0), st.WindowStart)
	assert.Zero(t, st.OnTime)
}

func TestWindow_RecomputesOncePerWindow(t *testing.T) {
	w := newTestWindow()
	st := ControllerState{Setpoint: 93, Filtered: 92.5}
	w.Recompute(&st, at(0))

	var computedAt []int
	for ms := 1; ms <= 3500; ms++ {
		if w.Recompute(&st, at(ms)) {
			computedAt = append(computedAt, ms)
		}
	}
	assert.Equal(t, []int{1000, 2000, 3000}, computedAt)
	assert.Equal(t, at(3000), st.WindowStart)
	assert.Equal(t, 400.0, st.Output)
	assert.Equal(t, 400*time.Millisecond, st.OnTime)
}

func TestWindow_OutputHeldWithinWindow(t *testing.T) {
	w := newTestWindow()
	st := ControllerState{Setpoint: 93, Filtered: 92.5}
	w.Recompute(&st, at(0))
	require.True(t, w.Recompute(&st, at(1000)))

	// Temperature change mid-window does not move the output.
	st.Filtered = 20
	w.Recompute(&st, at(1500))
	assert.Equal(t, 400.0, st.Output)
}

func TestWindow_OutputClampedToWindow(t *testing.T) {
	w := newTestWindow()
	st := ControllerState{Setpoint: 93, Filtered: 20}
	w.Recompute(&st, at(0))
	w.Recompute(&st, at(1000))
	assert.Equal(t, 1000.0, st.Output)

	st.Filtered = 120
	w.Recompute(&st, at(2000))
	assert.Equal(t, 0.0, st.Output)
	assert.Zero(t, st.OnTime)
}

func TestWindow_SmallOutputRaisedToMinimumCycle(t *testing.T) {
	w := newTestWindow()
	// 800 * 0.00625 = 5ms of raw output.
	st := ControllerState{Setpoint: 93, Filtered: 92.99375}
	w.Recompute(&st, at(0))
	w.Recompute(&st, at(1000))

	assert.Equal(t, 20.0, st.Output)
	assert.Equal(t, 20*time.Millisecond, st.OnTime)
}

func TestApplyMinCycle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{0.5, 20},
		{5, 20},
		{19.99, 20},
		{20, 20},
		{21, 21},
		{1000, 1000},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, applyMinCycle(tc.in, 20), "in=%v", tc.in)
	}
}

func TestWindow_UsesCurrentSetpoint(t *testing.T) {
	w := newTestWindow()
	st := ControllerState{Setpoint: 93, Filtered: 93}
	w.Recompute(&st, at(0))
	w.Recompute(&st, at(1000))
	assert.Equal(t, 0.0, st.Output)

	st.Setpoint = 93.5
	w.Recompute(&st, at(2000))
	assert.Equal(t, 400.0, st.Output)
}
