package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPIDStep_ZeroDT(t *testing.T) {
	p := newPID(800, 0, 0, 0, 1000)
	assert.Equal(t, 0.0, p.step(93, 60, 0))
	assert.False(t, p.primed, "zero dt must not record the input")
}

func TestPIDStep_Limits(t *testing.T) {
	p := newPID(800, 0, 0, 0, 1000)
	assert.Equal(t, 1000.0, p.step(93, 20, time.Second), "cold boiler gets the full window")
	assert.Equal(t, 0.0, p.step(93, 100, time.Second), "overshoot turns the heater off")
}

func TestPIDStep_Proportional(t *testing.T) {
	p := newPID(800, 0, 0, 0, 1000)
	assert.Equal(t, 400.0, p.step(93, 92.5, time.Second))
}

func TestPIDStep_IntegralHeldWithinLimits(t *testing.T) {
	p := newPID(0, 100, 0, 0, 1000)
	for i := 0; i < 100; i++ {
		p.step(93, 20, time.Second)
	}
	assert.Equal(t, 1000.0, p.iterm)
	assert.Less(t, p.step(93, 95, time.Second), 1000.0, "output drops right after crossing the setpoint")
}

func TestPIDStep_DerivativeOnMeasurement(t *testing.T) {
	p := newPID(0, 0, 100, -1000, 1000)

	assert.Equal(t, 0.0, p.step(93, 90, time.Second))
	assert.Equal(t, 0.0, p.step(130, 90, time.Second), "setpoint jump alone")
	assert.Equal(t, -200.0, p.step(130, 92, time.Second), "rising temperature damps")
}
