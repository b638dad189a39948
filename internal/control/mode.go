package control

import (
	"time"

	"go.uber.org/zap"

	"boilerctl/internal/input"
)

// ModeController owns the espresso/steam selection and the per-mode
// setpoints.
type ModeController struct {
	kind     ModeInput
	invert   bool
	interval time.Duration
	min, max byte
	defaults [2]byte
	initial  Mode

	modeIn   Input
	increase Input
	decrease Input
	store    Store
	debounce time.Duration
	detector *input.Detector

	lastAdjust time.Time
	onChange   []func(Mode)
	log        *zap.Logger
}

func newModeController(cfg Config, modeIn, increase, decrease Input, store Store, log *zap.Logger) *ModeController {
	return &ModeController{
		kind:     cfg.ModeInput,
		invert:   cfg.InvertMode,
		interval: cfg.AdjustInterval,
		min:      cfg.MinSetpoint,
		max:      cfg.MaxSetpoint,
		defaults: [2]byte{ModeEspresso: cfg.DefaultEspresso, ModeSteam: cfg.DefaultSteam},
		initial:  cfg.InitialMode,
		modeIn:   modeIn,
		increase: increase,
		decrease: decrease,
		store:    store,
		debounce: cfg.Debounce,
		log:      log,
	}
}

// OnChange registers fn to run after every mode switch.
func (m *ModeController) OnChange(fn func(Mode)) {
	m.onChange = append(m.onChange, fn)
}

// Load reads both setpoints from the store. A stored byte outside the
// configured range (0xFF on a fresh EEPROM) is replaced by the default and
// written back.
func (m *ModeController) Load(st *ControllerState) {
	for _, mode := range []Mode{ModeEspresso, ModeSteam} {
		v, err := m.store.Get(mode.addr())
		if err != nil {
			m.log.Warn("setpoint read failed, using default", zap.Stringer("mode", mode), zap.Error(err))
			v = m.defaults[mode]
		} else if v < m.min || v > m.max {
			m.log.Info("stored setpoint out of range, using default",
				zap.Stringer("mode", mode), zap.Uint8("stored", v), zap.Uint8("default", m.defaults[mode]))
			v = m.defaults[mode]
			m.persist(mode, v)
		}
		st.Setpoints[mode] = v
	}
	st.Mode = m.initial
	st.Setpoint = float64(st.Setpoints[st.Mode])
}

// Poll samples the mode input and switches mode when the input calls for it.
// It reports whether the mode changed.
func (m *ModeController) Poll(st *ControllerState, now time.Time) bool {
	if m.modeIn == nil {
		return false
	}
	level, err := m.modeIn.Level()
	if err != nil {
		m.log.Debug("mode input read failed", zap.Error(err))
		return false
	}
	if m.detector == nil {
		// A held button at power-up counts as a press; a switch starts at
		// whatever position it is in.
		m.detector = input.NewDetector(m.debounce, m.kind == ModeInputSwitch && level)
	}
	tr := m.detector.Update(level, now)

	want := st.Mode
	switch m.kind {
	case ModeInputToggle:
		if tr.Rising {
			want = st.Mode.Other()
		}
	case ModeInputSwitch:
		want = ModeEspresso
		if tr.Level == m.invert {
			want = ModeSteam
		}
	}
	if want == st.Mode {
		return false
	}
	m.setMode(st, want)
	return true
}

func (m *ModeController) setMode(st *ControllerState, mode Mode) {
	st.Mode = mode
	st.Setpoint = float64(st.Setpoints[mode])
	m.log.Info("mode changed", zap.Stringer("mode", mode), zap.Float64("setpoint_c", st.Setpoint))
	for _, fn := range m.onChange {
		fn(mode)
	}
}

// Adjust steps the active mode's setpoint by one degree while the decrease
// or increase input is held, at most once per adjust interval. Decrease wins
// when both are held. It reports whether the setpoint changed.
func (m *ModeController) Adjust(st *ControllerState, now time.Time) bool {
	if !m.lastAdjust.IsZero() && now.Sub(m.lastAdjust) < m.interval {
		return false
	}
	m.lastAdjust = now

	delta := 0
	switch {
	case m.level(m.decrease):
		delta = -1
	case m.level(m.increase):
		delta = 1
	default:
		return false
	}

	cur := int(st.Setpoints[st.Mode])
	next := cur + delta
	if next < int(m.min) {
		next = int(m.min)
	}
	if next > int(m.max) {
		next = int(m.max)
	}
	if next == cur {
		return false
	}

	st.Setpoints[st.Mode] = byte(next)
	st.Setpoint = float64(next)
	m.persist(st.Mode, byte(next))
	m.log.Info("setpoint adjusted", zap.Stringer("mode", st.Mode), zap.Int("setpoint_c", next))
	return true
}

func (m *ModeController) level(in Input) bool {
	if in == nil {
		return false
	}
	v, err := in.Level()
	if err != nil {
		m.log.Debug("adjust input read failed", zap.Error(err))
		return false
	}
	return v
}

func (m *ModeController) persist(mode Mode, v byte) {
	if err := m.store.Put(mode.addr(), v); err != nil {
		m.log.Error("setpoint write failed", zap.Stringer("mode", mode), zap.Uint8("setpoint_c", v), zap.Error(err))
	}
}
