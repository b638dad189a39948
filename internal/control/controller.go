package control

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// Devices are the collaborators of the control loop. Sensor, Relay and
// Store are required; the rest may be nil.
type Devices struct {
	Sensor Sensor
	Relay  Output
	Store  Store

	ModeInput Input
	Increase  Input
	Decrease  Input

	Display  Display
	Recorder Recorder
}

// Controller runs one control-loop iteration per Tick.
type Controller struct {
	cfg Config
	st  ControllerState

	sampler *Sampler
	window  *Window
	safety  *SafetyMonitor
	relay   *RelayDriver
	mode    *ModeController

	display  Display
	recorder Recorder
	recErr   bool

	log *zap.Logger
}

func New(cfg Config, dev Devices, log *zap.Logger) (*Controller, error) {
	if dev.Sensor == nil {
		return nil, errors.New("control: sensor is nil")
	}
	if dev.Relay == nil {
		return nil, errors.New("control: relay is nil")
	}
	if dev.Store == nil {
		return nil, errors.New("control: store is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	safety := newSafetyMonitor(cfg.FaultPolicy, log.Named("safety"))
	c := &Controller{
		cfg:      cfg,
		safety:   safety,
		sampler:  newSampler(dev.Sensor, safety, cfg.SampleInterval, cfg.FilterSize, log.Named("sampler")),
		window:   newWindow(cfg),
		relay:    newRelayDriver(dev.Relay, log.Named("relay")),
		mode:     newModeController(cfg, dev.ModeInput, dev.Increase, dev.Decrease, dev.Store, log.Named("mode")),
		display:  dev.Display,
		recorder: dev.Recorder,
		log:      log,
	}
	c.mode.Load(&c.st)
	c.relay.Off(&c.st)
	c.log.Info("controller ready",
		zap.Stringer("mode", c.st.Mode),
		zap.Uint8("espresso_c", c.st.Setpoints[ModeEspresso]),
		zap.Uint8("steam_c", c.st.Setpoints[ModeSteam]),
		zap.Stringer("fault_policy", cfg.FaultPolicy),
		zap.Stringer("mode_input", cfg.ModeInput))
	return c, nil
}

// Config returns the effective configuration after defaults.
func (c *Controller) Config() Config { return c.cfg }

// OnModeChange registers fn to run after every mode switch.
func (c *Controller) OnModeChange(fn func(Mode)) { c.mode.OnChange(fn) }

// State returns a copy of the current state.
func (c *Controller) State() ControllerState { return c.st }

// Tick runs one iteration: sample, PID window, safety gate, relay, mode
// input and setpoint adjustment, then diagnostics.
func (c *Controller) Tick(now time.Time) ControllerState {
	c.sampler.Sample(&c.st, now)
	c.window.Recompute(&c.st, now)
	safe, _ := c.safety.Evaluate(&c.st)
	c.relay.Tick(&c.st, now, safe)
	c.mode.Poll(&c.st, now)
	c.mode.Adjust(&c.st, now)
	c.publish()
	return c.st
}

// Shutdown forces the relay off.
func (c *Controller) Shutdown() {
	c.relay.Off(&c.st)
}

func (c *Controller) publish() {
	if c.display != nil {
		c.display.Show(c.st.status())
	}
	if c.recorder == nil {
		return
	}
	err := c.recorder.Record(c.st.record(c.window.Size()))
	if err != nil && !c.recErr {
		c.log.Debug("diagnostic record dropped", zap.Error(err))
	}
	c.recErr = err != nil
}
