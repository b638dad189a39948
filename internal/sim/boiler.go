package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Boiler is a crude thermal model of a single-boiler espresso machine. It
// stands in for both the thermocouple and the heating element so the control
// loop can be exercised without hardware.
//
// While the element is on the water heats at HeatRate scaled by a random
// factor in {0.9, 1.0, 1.1}; while off it loses CoolRate. Temperature never
// falls below Ambient.
type Boiler struct {
	HeatRate   float64 // degC per second while on
	CoolRate   float64 // degC per second while off
	Ambient    float64
	Resolution float64 // quantize readings (0.25 mimics a MAX6675); 0 disables

	mu     sync.Mutex
	now    func() time.Time
	jitter func() float64
	temp   float64
	on     bool
	last   time.Time
}

// NewBoiler starts a boiler at ambient temperature with the element off.
func NewBoiler(ambient float64) *Boiler {
	if ambient <= 0 {
		ambient = 22
	}
	return &Boiler{
		HeatRate: 1.0,
		CoolRate: 0.1,
		Ambient:  ambient,
		now:      time.Now,
		jitter:   func() float64 { return 0.9 + float64(rand.Intn(3))/10.0 },
		temp:     ambient,
	}
}

// ReadCelsius advances the model to now and returns the water temperature.
func (b *Boiler) ReadCelsius() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advanceLocked()
	if b.Resolution > 0 {
		return math.Round(b.temp/b.Resolution) * b.Resolution, nil
	}
	return b.temp, nil
}

// Set switches the heating element.
func (b *Boiler) Set(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advanceLocked()
	b.on = on
	return nil
}

// Quench drops the temperature abruptly, as when cold water is drawn after a
// mode change.
func (b *Boiler) Quench(deltaC float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advanceLocked()
	b.temp -= deltaC
	if b.temp < b.Ambient {
		b.temp = b.Ambient
	}
}

// Heating reports the element state.
func (b *Boiler) Heating() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

func (b *Boiler) advanceLocked() {
	now := b.now()
	if b.last.IsZero() {
		b.last = now
		return
	}
	dt := now.Sub(b.last).Seconds()
	b.last = now
	if dt <= 0 {
		return
	}
	if b.on {
		b.temp += b.HeatRate * b.jitter() * dt
		return
	}
	b.temp -= b.CoolRate * dt
	if b.temp < b.Ambient {
		b.temp = b.Ambient
	}
}
