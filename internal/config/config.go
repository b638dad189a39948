package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"boilerctl/internal/control"
	"boilerctl/internal/eeprom"
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Control   ControlConfig   `yaml:"control"`
	Mode      ModeConfig      `yaml:"mode"`
	Setpoints SetpointsConfig `yaml:"setpoints"`
	Safety    SafetyConfig    `yaml:"safety"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Relay     LineConfig      `yaml:"relay"`
	Inputs    InputsConfig    `yaml:"inputs"`
	Store     StoreConfig     `yaml:"store"`
	Diag      DiagConfig      `yaml:"diag"`
	Sim       SimConfig       `yaml:"sim"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ControlConfig tunes the loop timing and the PID. Nil gains take the
// defaults; an explicit 0 is kept.
type ControlConfig struct {
	TickInterval   time.Duration `yaml:"tick_interval"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	FilterSize     int           `yaml:"filter_size"`
	Window         time.Duration `yaml:"window"`
	MinCycle       time.Duration `yaml:"min_cycle"`
	Kp             *float64      `yaml:"kp"`
	Ki             *float64      `yaml:"ki"`
	Kd             *float64      `yaml:"kd"`
}

type ModeConfig struct {
	Initial        string        `yaml:"initial"`
	Input          string        `yaml:"input"`
	Invert         bool          `yaml:"invert"`
	Debounce       time.Duration `yaml:"debounce"`
	AdjustInterval time.Duration `yaml:"adjust_interval"`
}

type SetpointsConfig struct {
	Espresso int `yaml:"espresso"`
	Steam    int `yaml:"steam"`
	Min      int `yaml:"min"`
	Max      int `yaml:"max"`
}

type SafetyConfig struct {
	Policy string `yaml:"policy"`
}

// SensorConfig selects the temperature source.
//
//	max6675  thermocouple converter on spidev
//	hwmon    milli-degree sysfs file (Path)
//	iio      IIO device directory (Path)
//	script   YAML scenario replay (Path)
//	sim      built-in boiler model, which also stands in for the relay
type SensorConfig struct {
	Kind       string `yaml:"kind"`
	SPIDevice  string `yaml:"spi_device"`
	SPISpeedHz uint32 `yaml:"spi_speed_hz"`
	Path       string `yaml:"path"`
	Loop       bool   `yaml:"loop"`
}

type LineConfig struct {
	Pin       int    `yaml:"pin"`
	Chip      string `yaml:"chip"`
	Offset    int    `yaml:"offset"`
	ActiveLow bool   `yaml:"active_low"`
	PullUp    bool   `yaml:"pull_up"`
}

func (l LineConfig) Configured() bool {
	return l.Pin > 0 || l.Chip != ""
}

type InputsConfig struct {
	Mode     LineConfig `yaml:"mode"`
	Increase LineConfig `yaml:"increase"`
	Decrease LineConfig `yaml:"decrease"`
}

// StoreConfig selects where setpoints persist: "file" (Path), "i2c" (a
// 24C02 at I2CAddr on I2CBus) or "memory".
type StoreConfig struct {
	Kind    string `yaml:"kind"`
	Path    string `yaml:"path"`
	Size    int    `yaml:"size"`
	I2CBus  string `yaml:"i2c_bus"`
	I2CAddr uint16 `yaml:"i2c_addr"`
}

type DiagConfig struct {
	Every   int           `yaml:"every"`
	Stdout  bool          `yaml:"stdout"`
	Serial  SerialConfig  `yaml:"serial"`
	UDP     UDPConfig     `yaml:"udp"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Display DisplayConfig `yaml:"display"`
}

type SerialConfig struct {
	Enable bool   `yaml:"enable"`
	Port   string `yaml:"port"`
	Baud   int    `yaml:"baud"`
}

type UDPConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      int    `yaml:"qos"`
}

type DisplayConfig struct {
	Enable bool          `yaml:"enable"`
	Period time.Duration `yaml:"period"`
}

type SimConfig struct {
	AmbientC float64 `yaml:"ambient_c"`
	HeatRate float64 `yaml:"heat_rate"`
	CoolRate float64 `yaml:"cool_rate"`
	// QuenchC is the drop applied on a mode change; negative disables it.
	QuenchC    float64 `yaml:"quench_c"`
	Resolution float64 `yaml:"resolution"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse unmarshals YAML, applies defaults and validates.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Control.TickInterval <= 0 {
		cfg.Control.TickInterval = control.DefaultTickInterval
	}
	if cfg.Control.SampleInterval <= 0 {
		cfg.Control.SampleInterval = control.DefaultSampleInterval
	}
	if cfg.Control.FilterSize <= 0 {
		cfg.Control.FilterSize = control.DefaultFilterSize
	}
	if cfg.Control.Window <= 0 {
		cfg.Control.Window = control.DefaultWindow
	}
	if cfg.Control.MinCycle <= 0 {
		cfg.Control.MinCycle = control.DefaultMinCycle
	}
	if cfg.Control.Kp == nil {
		cfg.Control.Kp = float64Ptr(control.DefaultKp)
	}
	if cfg.Control.Ki == nil {
		cfg.Control.Ki = float64Ptr(control.DefaultKi)
	}
	if cfg.Control.Kd == nil {
		cfg.Control.Kd = float64Ptr(control.DefaultKd)
	}

	if cfg.Mode.Initial == "" {
		cfg.Mode.Initial = "espresso"
	}
	if cfg.Mode.Input == "" {
		cfg.Mode.Input = "toggle"
	}
	if cfg.Mode.Debounce <= 0 {
		cfg.Mode.Debounce = 20 * time.Millisecond
	}
	if cfg.Mode.AdjustInterval <= 0 {
		cfg.Mode.AdjustInterval = control.DefaultAdjustInterval
	}

	if cfg.Setpoints.Espresso == 0 {
		cfg.Setpoints.Espresso = int(control.DefaultEspressoSetpoint)
	}
	if cfg.Setpoints.Steam == 0 {
		cfg.Setpoints.Steam = int(control.DefaultSteamSetpoint)
	}
	if cfg.Setpoints.Min == 0 {
		cfg.Setpoints.Min = int(control.DefaultMinSetpoint)
	}
	if cfg.Setpoints.Max == 0 {
		cfg.Setpoints.Max = int(control.DefaultMaxSetpoint)
	}

	if cfg.Safety.Policy == "" {
		cfg.Safety.Policy = "substitute"
	}

	if cfg.Sensor.Kind == "" {
		cfg.Sensor.Kind = "max6675"
	}
	if cfg.Sensor.Kind == "max6675" && cfg.Sensor.SPIDevice == "" {
		cfg.Sensor.SPIDevice = "/dev/spidev0.0"
	}

	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "file"
	}
	if cfg.Store.Kind == "file" && cfg.Store.Path == "" {
		cfg.Store.Path = "/var/lib/boilerctl/eeprom.bin"
	}
	if cfg.Store.Kind == "i2c" {
		if cfg.Store.I2CBus == "" {
			cfg.Store.I2CBus = "/dev/i2c-1"
		}
		if cfg.Store.I2CAddr == 0 {
			cfg.Store.I2CAddr = eeprom.DefaultAT24Addr
		}
	}
	if cfg.Store.Size <= 0 {
		cfg.Store.Size = 256
	}

	// At 10ms ticks this is one record per sensor read.
	if cfg.Diag.Every <= 0 {
		cfg.Diag.Every = 25
	}
	if cfg.Diag.Serial.Baud <= 0 {
		cfg.Diag.Serial.Baud = 9600
	}
	if cfg.Diag.MQTT.Topic == "" {
		cfg.Diag.MQTT.Topic = "boilerctl/diag"
	}
	if cfg.Diag.MQTT.ClientID == "" {
		cfg.Diag.MQTT.ClientID = "boilerctl"
	}
	if cfg.Diag.Display.Period <= 0 {
		cfg.Diag.Display.Period = 5 * time.Second
	}

	// Simulator defaults (safe even if disabled).
	if cfg.Sim.AmbientC <= 0 {
		cfg.Sim.AmbientC = 22
	}
	if cfg.Sim.HeatRate <= 0 {
		cfg.Sim.HeatRate = 1.0
	}
	if cfg.Sim.CoolRate <= 0 {
		cfg.Sim.CoolRate = 0.1
	}
	if cfg.Sim.QuenchC == 0 {
		cfg.Sim.QuenchC = 20
	}
}

func (cfg *Config) validate() error {
	if *cfg.Control.Kp < 0 || *cfg.Control.Ki < 0 || *cfg.Control.Kd < 0 {
		return fmt.Errorf("control.kp, control.ki and control.kd must be >= 0")
	}
	if cfg.Control.MinCycle > cfg.Control.Window {
		return fmt.Errorf("control.min_cycle must not exceed control.window")
	}
	if cfg.Control.TickInterval > cfg.Control.MinCycle {
		return fmt.Errorf("control.tick_interval must not exceed control.min_cycle")
	}

	if _, err := control.ParseMode(cfg.Mode.Initial); err != nil {
		return fmt.Errorf("mode.initial must be 'espresso' or 'steam'")
	}
	if _, err := control.ParseModeInput(cfg.Mode.Input); err != nil {
		return fmt.Errorf("mode.input must be 'toggle' or 'switch'")
	}
	if _, err := control.ParseFaultPolicy(cfg.Safety.Policy); err != nil {
		return fmt.Errorf("safety.policy must be 'substitute' or 'halt'")
	}

	sp := cfg.Setpoints
	if sp.Min < 1 || sp.Max > 254 || sp.Min > sp.Max {
		return fmt.Errorf("setpoints.min and setpoints.max must satisfy 1 <= min <= max <= 254")
	}
	if sp.Espresso < sp.Min || sp.Espresso > sp.Max {
		return fmt.Errorf("setpoints.espresso must be within [setpoints.min, setpoints.max]")
	}
	if sp.Steam < sp.Min || sp.Steam > sp.Max {
		return fmt.Errorf("setpoints.steam must be within [setpoints.min, setpoints.max]")
	}

	switch cfg.Sensor.Kind {
	case "max6675", "sim":
	case "hwmon", "iio", "script":
		if cfg.Sensor.Path == "" {
			return fmt.Errorf("sensor.path is required when sensor.kind is '%s'", cfg.Sensor.Kind)
		}
	default:
		return fmt.Errorf("sensor.kind must be one of max6675, hwmon, iio, script, sim")
	}
	if cfg.Sensor.Kind != "sim" && !cfg.Relay.Configured() {
		return fmt.Errorf("relay.pin or relay.chip is required unless sensor.kind is 'sim'")
	}

	switch cfg.Store.Kind {
	case "file", "memory":
	case "i2c":
		if cfg.Store.Size > 256 {
			return fmt.Errorf("store.size must be <= 256 when store.kind is 'i2c'")
		}
	default:
		return fmt.Errorf("store.kind must be one of file, i2c, memory")
	}

	if cfg.Diag.Serial.Enable && cfg.Diag.Serial.Port == "" {
		return fmt.Errorf("diag.serial.port is required when diag.serial.enable is true")
	}
	if cfg.Diag.UDP.Enable && cfg.Diag.UDP.Dest == "" {
		return fmt.Errorf("diag.udp.dest is required when diag.udp.enable is true")
	}
	if cfg.Diag.MQTT.Enable && cfg.Diag.MQTT.Broker == "" {
		return fmt.Errorf("diag.mqtt.broker is required when diag.mqtt.enable is true")
	}
	if cfg.Diag.MQTT.QoS < 0 || cfg.Diag.MQTT.QoS > 2 {
		return fmt.Errorf("diag.mqtt.qos must be 0, 1 or 2")
	}
	return nil
}

// ControlConfig converts the validated file into the loop configuration.
func (cfg Config) ControlConfig() control.Config {
	mode, _ := control.ParseMode(cfg.Mode.Initial)
	in, _ := control.ParseModeInput(cfg.Mode.Input)
	policy, _ := control.ParseFaultPolicy(cfg.Safety.Policy)
	return control.Config{
		Kp:              *cfg.Control.Kp,
		Ki:              *cfg.Control.Ki,
		Kd:              *cfg.Control.Kd,
		GainsSet:        true,
		Window:          cfg.Control.Window,
		MinCycle:        cfg.Control.MinCycle,
		SampleInterval:  cfg.Control.SampleInterval,
		FilterSize:      cfg.Control.FilterSize,
		TickInterval:    cfg.Control.TickInterval,
		FaultPolicy:     policy,
		ModeInput:       in,
		InvertMode:      cfg.Mode.Invert,
		Debounce:        cfg.Mode.Debounce,
		AdjustInterval:  cfg.Mode.AdjustInterval,
		InitialMode:     mode,
		DefaultEspresso: byte(cfg.Setpoints.Espresso),
		DefaultSteam:    byte(cfg.Setpoints.Steam),
		MinSetpoint:     byte(cfg.Setpoints.Min),
		MaxSetpoint:     byte(cfg.Setpoints.Max),
	}
}

func float64Ptr(v float64) *float64 { return &v }
