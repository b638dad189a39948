package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetector_NoHoldReportsEveryEdge(t *testing.T) {
	d := NewDetector(0, false)
	t0 := time.Unix(0, 0)

	tr := d.Update(true, t0)
	assert.Equal(t, Transition{Level: true, Rising: true}, tr)

	tr = d.Update(true, t0.Add(time.Millisecond))
	assert.Equal(t, Transition{Level: true}, tr)

	tr = d.Update(false, t0.Add(2*time.Millisecond))
	assert.Equal(t, Transition{Level: false, Falling: true}, tr)
}

func TestDetector_DebounceRejectsBounce(t *testing.T) {
	d := NewDetector(20*time.Millisecond, false)
	t0 := time.Unix(0, 0)

	// Contact bounce shorter than the hold time.
	assert.False(t, d.Update(true, t0).Rising)
	assert.False(t, d.Update(false, t0.Add(5*time.Millisecond)).Rising)
	assert.False(t, d.Update(true, t0.Add(10*time.Millisecond)).Rising)
	assert.False(t, d.Update(true, t0.Add(25*time.Millisecond)).Rising)
	assert.False(t, d.Level())

	tr := d.Update(true, t0.Add(30*time.Millisecond))
	assert.True(t, tr.Rising)
	assert.True(t, tr.Level)

	// Holding the level does not repeat the edge.
	tr = d.Update(true, t0.Add(100*time.Millisecond))
	assert.False(t, tr.Rising)
	assert.True(t, tr.Level)
}

func TestDetector_InitialLevelProducesNoEdge(t *testing.T) {
	d := NewDetector(0, true)
	tr := d.Update(true, time.Unix(0, 0))
	assert.Equal(t, Transition{Level: true}, tr)
}
