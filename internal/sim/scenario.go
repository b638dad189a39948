package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ScenarioScript is a deterministic, script-driven thermocouple trace used to
// replay startup and fault sequences against the control loop.
//
// Time is expressed as Go duration strings (e.g. "0s", "250ms", "10s").
// If Duration is zero, it is derived from the latest keyframe time.
//
// YAML schema (v1):
//
//	version: 1
//	duration: 30s
//	keyframes:
//	  - t: 0s
//	    temp_c: 22
//	  - t: 20s
//	    temp_c: 93
//	  - t: 25s
//	    fault: open
//
// Temperatures are linearly interpolated between keyframes. A fault holds
// from its keyframe until the next one:
//
//	open   reading is NaN (thermocouple disconnected)
//	zero   reading is exactly 0
//	error  the read itself fails
type ScenarioScript struct {
	Version   int              `yaml:"version"`
	Duration  time.Duration    `yaml:"duration"`
	Keyframes []SensorKeyframe `yaml:"keyframes"`
}

// SensorKeyframe is a time-stamped sensor state.
type SensorKeyframe struct {
	T     time.Duration `yaml:"t"`
	TempC float64       `yaml:"temp_c"`
	Fault string        `yaml:"fault"`
}

// Fault names accepted in a keyframe.
const (
	FaultOpen  = "open"
	FaultZero  = "zero"
	FaultError = "error"
)

// ErrScriptedFault is returned by reads inside an "error" keyframe.
var ErrScriptedFault = errors.New("sim: scripted sensor error")

// Scenario is a validated script ready for replay.
type Scenario struct {
	keys     []SensorKeyframe
	duration time.Duration
}

// LoadScenarioScript reads a script from path.
func LoadScenarioScript(path string) (ScenarioScript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ScenarioScript{}, fmt.Errorf("sim: read scenario: %w", err)
	}
	script, err := ParseScenarioScriptYAML(b)
	if err != nil {
		return ScenarioScript{}, fmt.Errorf("sim: %s: %w", path, err)
	}
	return script, nil
}

// ParseScenarioScriptYAML decodes a script. Unknown keys are rejected so a
// misspelled temp_c does not silently replay as 0.
func ParseScenarioScriptYAML(b []byte) (ScenarioScript, error) {
	var script ScenarioScript
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil && !errors.Is(err, io.EOF) {
		return ScenarioScript{}, err
	}
	return script, nil
}

// NewScenario checks script and derives its duration.
func NewScenario(script ScenarioScript) (*Scenario, error) {
	switch script.Version {
	case 0, 1:
	default:
		return nil, fmt.Errorf("unsupported scenario version %d", script.Version)
	}
	keys := script.Keyframes
	if len(keys) == 0 {
		return nil, fmt.Errorf("keyframes is required")
	}
	var prev time.Duration
	for i, kf := range keys {
		switch {
		case kf.T < 0:
			return nil, fmt.Errorf("keyframes[%d].t must be >= 0", i)
		case kf.T < prev:
			return nil, fmt.Errorf("keyframes must be sorted by t (index %d)", i)
		}
		prev = kf.T
		if kf.Fault != "" && kf.Fault != FaultOpen && kf.Fault != FaultZero && kf.Fault != FaultError {
			return nil, fmt.Errorf("keyframes[%d].fault %q must be one of open, zero, error", i, kf.Fault)
		}
	}

	d := script.Duration
	if d <= 0 {
		d = prev
	}
	if d <= 0 {
		return nil, fmt.Errorf("duration is required when every keyframe is at t=0")
	}
	return &Scenario{keys: keys, duration: d}, nil
}

// Duration returns the effective scenario duration.
func (s *Scenario) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return s.duration
}

// ReadingAt returns the scripted reading elapsed into the run. With loop
// set the script repeats; otherwise the final state holds.
func (s *Scenario) ReadingAt(elapsed time.Duration, loop bool) (float64, error) {
	switch {
	case elapsed < 0:
		elapsed = 0
	case loop:
		elapsed %= s.duration
	case elapsed > s.duration:
		elapsed = s.duration
	}

	i := s.active(elapsed)
	cur := s.keys[i]
	switch cur.Fault {
	case FaultOpen:
		return math.NaN(), nil
	case FaultZero:
		return 0, nil
	case FaultError:
		return math.NaN(), ErrScriptedFault
	}
	if i+1 == len(s.keys) {
		return cur.TempC, nil
	}
	next := s.keys[i+1]
	if next.Fault != "" || next.T == cur.T {
		return cur.TempC, nil
	}
	frac := float64(elapsed-cur.T) / float64(next.T-cur.T)
	return cur.TempC + (next.TempC-cur.TempC)*frac, nil
}

// active is the index of the last keyframe at or before t, or 0 when t
// precedes the first one.
func (s *Scenario) active(t time.Duration) int {
	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i].T > t }) - 1
	if i < 0 {
		return 0
	}
	return i
}

// Sensor replays the scenario against wall-clock time from the first read.
func (s *Scenario) Sensor(loop bool) *ScenarioSensor {
	return &ScenarioSensor{scn: s, loop: loop, now: time.Now}
}

// ScenarioSensor adapts a Scenario to a thermocouple reader.
type ScenarioSensor struct {
	scn   *Scenario
	loop  bool
	now   func() time.Time
	start time.Time
}

func (p *ScenarioSensor) ReadCelsius() (float64, error) {
	now := p.now()
	if p.start.IsZero() {
		p.start = now
	}
	return p.scn.ReadingAt(now.Sub(p.start), p.loop)
}
