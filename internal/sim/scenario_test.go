package sim

import (
	"errors"
	"math"
	"testing"
	"time"
)

func mustScenario(t *testing.T, src string) *Scenario {
	t.Helper()
	script, err := ParseScenarioScriptYAML([]byte(src))
	if err != nil {
		t.Fatalf("ParseScenarioScriptYAML: %v", err)
	}
	scn, err := NewScenario(script)
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	return scn
}

func TestScenario_ParseAndInterpolate(t *testing.T) {
	scn := mustScenario(t, `
version: 1
# duration derived from last keyframe
keyframes:
  - t: 0s
    temp_c: 22
  - t: 10s
    temp_c: 92
`)
	if scn.Duration() != 10*time.Second {
		t.Fatalf("duration: got %s want %s", scn.Duration(), 10*time.Second)
	}
	v, err := scn.ReadingAt(5*time.Second, false)
	if err != nil {
		t.Fatalf("ReadingAt: %v", err)
	}
	if v != 57 {
		t.Fatalf("interpolation: got %v want 57", v)
	}
}

func TestScenario_LoopAndClamp(t *testing.T) {
	scn := mustScenario(t, `
duration: 10s
keyframes:
  - t: 0s
    temp_c: 0
  - t: 10s
    temp_c: 100
`)
	// Clamp (no loop): 11s -> end state.
	if v, _ := scn.ReadingAt(11*time.Second, false); v != 100 {
		t.Fatalf("clamp: got %v want 100", v)
	}
	// Loop: 11s -> 1s.
	if v, _ := scn.ReadingAt(11*time.Second, true); v != 10 {
		t.Fatalf("loop: got %v want 10", v)
	}
}

func TestScenario_Faults(t *testing.T) {
	scn := mustScenario(t, `
keyframes:
  - t: 0s
    temp_c: 90
  - t: 1s
    fault: open
  - t: 2s
    fault: zero
  - t: 3s
    fault: error
  - t: 4s
    temp_c: 93
`)
	// Approaching a fault keyframe holds the previous temperature.
	if v, _ := scn.ReadingAt(500*time.Millisecond, false); v != 90 {
		t.Fatalf("pre-fault: got %v want 90", v)
	}
	if v, _ := scn.ReadingAt(1500*time.Millisecond, false); !math.IsNaN(v) {
		t.Fatalf("open: got %v want NaN", v)
	}
	if v, _ := scn.ReadingAt(2500*time.Millisecond, false); v != 0 {
		t.Fatalf("zero: got %v want 0", v)
	}
	if _, err := scn.ReadingAt(3500*time.Millisecond, false); !errors.Is(err, ErrScriptedFault) {
		t.Fatalf("error: got %v want ErrScriptedFault", err)
	}
	if v, err := scn.ReadingAt(4*time.Second, false); err != nil || v != 93 {
		t.Fatalf("recovered: got %v, %v", v, err)
	}
}

func TestScenario_Validation(t *testing.T) {
	cases := map[string]ScenarioScript{
		"empty":    {},
		"version":  {Version: 2, Keyframes: []SensorKeyframe{{T: time.Second}}},
		"unsorted": {Keyframes: []SensorKeyframe{{T: 2 * time.Second}, {T: time.Second}}},
		"fault":    {Keyframes: []SensorKeyframe{{T: time.Second, Fault: "melted"}}},
		"duration": {Keyframes: []SensorKeyframe{{T: 0}}},
	}
	for name, script := range cases {
		if _, err := NewScenario(script); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestScenarioSensor_ClockFromFirstRead(t *testing.T) {
	scn := mustScenario(t, `
keyframes:
  - t: 0s
    temp_c: 20
  - t: 4s
    temp_c: 60
`)
	c := &fakeClock{t: time.Unix(5000, 0)}
	s := scn.Sensor(false)
	s.now = c.now

	if v, _ := s.ReadCelsius(); v != 20 {
		t.Fatalf("first read: got %v want 20", v)
	}
	c.add(time.Second)
	if v, _ := s.ReadCelsius(); v != 30 {
		t.Fatalf("after 1s: got %v want 30", v)
	}
}

func TestParseScenarioScriptYAML_UnknownKey(t *testing.T) {
	_, err := ParseScenarioScriptYAML([]byte(`
keyframes:
  - t: 1s
    temp: 93
`))
	if err == nil {
		t.Fatalf("expected error for misspelled temp_c")
	}
}

func TestLoadScenarioScript_Missing(t *testing.T) {
	if _, err := LoadScenarioScript(t.TempDir() + "/none.yaml"); err == nil {
		t.Fatalf("expected error")
	}
}
