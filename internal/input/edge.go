// Package input turns sampled boolean input levels into debounced
// transitions.
package input

import "time"

// Transition is the result of one Detector update.
type Transition struct {
	Level   bool
	Rising  bool
	Falling bool
}

// Detector debounces a boolean level. A new level is accepted only after it
// has been observed continuously for the hold time; a zero hold accepts every
// change immediately.
//
// Not safe for concurrent use.
type Detector struct {
	hold time.Duration

	stable    bool
	candidate bool
	since     time.Time
	primed    bool
}

// NewDetector returns a detector whose stable level starts at initial.
func NewDetector(hold time.Duration, initial bool) *Detector {
	if hold < 0 {
		hold = 0
	}
	return &Detector{hold: hold, stable: initial, candidate: initial}
}

// Level returns the current debounced level.
func (d *Detector) Level() bool { return d.stable }

// Update feeds the raw level sampled at now.
func (d *Detector) Update(raw bool, now time.Time) Transition {
	if raw != d.candidate || !d.primed {
		d.candidate = raw
		d.since = now
		d.primed = true
	}

	if d.candidate != d.stable && now.Sub(d.since) >= d.hold {
		prev := d.stable
		d.stable = d.candidate
		return Transition{Level: d.stable, Rising: !prev && d.stable, Falling: prev && !d.stable}
	}
	return Transition{Level: d.stable}
}
