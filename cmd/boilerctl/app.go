package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"boilerctl/internal/config"
	"boilerctl/internal/control"
	"boilerctl/internal/diag"
	"boilerctl/internal/eeprom"
	"boilerctl/internal/gpio"
	"boilerctl/internal/i2c"
	"boilerctl/internal/sensors/max6675"
	"boilerctl/internal/sensors/sysfs"
	"boilerctl/internal/sim"
	"boilerctl/internal/spi"
)

// app is the wired control loop plus everything it has to release.
type app struct {
	ctl    *control.Controller
	svc    *control.Service
	boiler *sim.Boiler
}

var (
	openOutputFn = func(opts gpio.Options) (control.Output, io.Closer, error) {
		o, err := gpio.OpenOutput(opts)
		if err != nil {
			return nil, nil, err
		}
		return o, o, nil
	}
	openInputFn = func(opts gpio.Options) (control.Input, io.Closer, error) {
		i, err := gpio.OpenInput(opts)
		if err != nil {
			return nil, nil, err
		}
		return i, i, nil
	}
	stdout io.Writer = os.Stdout
)

func newApp(cfg config.Config, log *zap.Logger) (a *app, err error) {
	var closers []io.Closer
	defer func() {
		if err != nil {
			closeAll(closers)
		}
	}()
	keep := func(c io.Closer) { closers = append(closers, c) }

	a = &app{}
	var dev control.Devices

	if cfg.Sensor.Kind == "sim" {
		b := sim.NewBoiler(cfg.Sim.AmbientC)
		b.HeatRate = cfg.Sim.HeatRate
		b.CoolRate = cfg.Sim.CoolRate
		b.Resolution = cfg.Sim.Resolution
		a.boiler = b
		log.Warn("simulated boiler in use", zap.Float64("ambient_c", cfg.Sim.AmbientC))
	}

	dev.Sensor, err = openSensor(cfg.Sensor, a.boiler, keep)
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.Relay.Configured():
		out, c, err := openOutputFn(lineOptions(cfg.Relay, "boilerctl-relay"))
		if err != nil {
			return nil, fmt.Errorf("relay: %w", err)
		}
		keep(c)
		if a.boiler != nil {
			dev.Relay = gpio.Multi{out, a.boiler}
		} else {
			dev.Relay = out
		}
	case a.boiler != nil:
		dev.Relay = a.boiler
	default:
		return nil, fmt.Errorf("relay: no output configured")
	}

	for _, in := range []struct {
		name string
		line config.LineConfig
		dst  *control.Input
	}{
		{"mode", cfg.Inputs.Mode, &dev.ModeInput},
		{"increase", cfg.Inputs.Increase, &dev.Increase},
		{"decrease", cfg.Inputs.Decrease, &dev.Decrease},
	} {
		if !in.line.Configured() {
			*in.dst = gpio.Static(false)
			continue
		}
		i, c, err := openInputFn(lineOptions(in.line, "boilerctl-"+in.name))
		if err != nil {
			return nil, fmt.Errorf("%s input: %w", in.name, err)
		}
		keep(c)
		*in.dst = i
	}

	dev.Store, err = openStore(cfg.Store, keep)
	if err != nil {
		return nil, err
	}

	rec, err := openRecorders(cfg.Diag, log.Named("diag"), keep)
	if err != nil {
		return nil, err
	}
	dev.Recorder = rec
	if cfg.Diag.Display.Enable {
		dev.Display = diag.NewLogDisplay(log.Named("display"), cfg.Diag.Display.Period)
	}

	a.ctl, err = control.New(cfg.ControlConfig(), dev, log.Named("control"))
	if err != nil {
		return nil, err
	}
	if a.boiler != nil && cfg.Sim.QuenchC > 0 {
		q := cfg.Sim.QuenchC
		a.ctl.OnModeChange(func(control.Mode) { a.boiler.Quench(q) })
	}
	a.svc = control.NewService(a.ctl, log.Named("service"), closers...)
	return a, nil
}

func openSensor(sc config.SensorConfig, boiler *sim.Boiler, keep func(io.Closer)) (control.Sensor, error) {
	switch sc.Kind {
	case "sim":
		return boiler, nil
	case "max6675":
		bus, err := spi.Open(sc.SPIDevice, spi.Config{SpeedHz: sc.SPISpeedHz})
		if err != nil {
			return nil, fmt.Errorf("thermocouple: %w", err)
		}
		keep(bus)
		return max6675.New(bus)
	case "hwmon":
		return sysfs.NewHwmon(sc.Path), nil
	case "iio":
		return sysfs.NewIIO(sc.Path)
	case "script":
		script, err := sim.LoadScenarioScript(sc.Path)
		if err != nil {
			return nil, fmt.Errorf("load scenario: %w", err)
		}
		scn, err := sim.NewScenario(script)
		if err != nil {
			return nil, fmt.Errorf("scenario: %w", err)
		}
		return scn.Sensor(sc.Loop), nil
	default:
		return nil, fmt.Errorf("unknown sensor kind %q", sc.Kind)
	}
}

func openStore(sc config.StoreConfig, keep func(io.Closer)) (control.Store, error) {
	switch sc.Kind {
	case "memory":
		return eeprom.NewMemory(sc.Size), nil
	case "i2c":
		bus, err := i2c.Open(sc.I2CBus)
		if err != nil {
			return nil, err
		}
		keep(bus)
		return eeprom.NewAT24(bus.Dev(sc.I2CAddr), sc.Size)
	default:
		return eeprom.Open(sc.Path, sc.Size)
	}
}

func openRecorders(dc config.DiagConfig, log *zap.Logger, keep func(io.Closer)) (control.Recorder, error) {
	var recs diag.Multi
	if dc.Stdout {
		recs = append(recs, diag.NewStream(stdout, dc.Every))
	}
	if dc.Serial.Enable {
		s, err := diag.OpenSerial(dc.Serial.Port, dc.Serial.Baud, dc.Every)
		if err != nil {
			return nil, err
		}
		keep(s)
		recs = append(recs, s)
	}
	if dc.UDP.Enable {
		u, err := diag.DialUDP(dc.UDP.Dest, dc.Every)
		if err != nil {
			return nil, fmt.Errorf("diag udp: %w", err)
		}
		keep(u)
		recs = append(recs, u)
	}
	if dc.MQTT.Enable {
		m, err := diag.DialMQTT(diag.MQTTOptions{
			Broker:   dc.MQTT.Broker,
			ClientID: dc.MQTT.ClientID,
			Topic:    dc.MQTT.Topic,
			QoS:      byte(dc.MQTT.QoS),
			Every:    dc.Every,
		}, log)
		if err != nil {
			return nil, err
		}
		keep(m)
		recs = append(recs, m)
	}
	switch len(recs) {
	case 0:
		return nil, nil
	case 1:
		return recs[0], nil
	default:
		return recs, nil
	}
}

func lineOptions(l config.LineConfig, consumer string) gpio.Options {
	return gpio.Options{
		Pin:       l.Pin,
		Chip:      l.Chip,
		Offset:    l.Offset,
		ActiveLow: l.ActiveLow,
		PullUp:    l.PullUp,
		Consumer:  consumer,
	}
}

func closeAll(cs []io.Closer) error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
