package config

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written in the
// human form ("100ms", "30ms", "1s") instead of nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the wrapped value as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SensorConfig describes the HC-SR04 wiring and measurement cadence.
type SensorConfig struct {
	TriggerPin  int      `yaml:"TriggerPin" json:"TriggerPin"`
	EchoPin     int      `yaml:"EchoPin" json:"EchoPin"`
	EchoTimeout Duration `yaml:"EchoTimeout" json:"EchoTimeout"`
	MinRangeCm  float64  `yaml:"MinRangeCm" json:"MinRangeCm"`
	MaxRangeCm  float64  `yaml:"MaxRangeCm" json:"MaxRangeCm"`
	SettleTime  Duration `yaml:"SettleTime" json:"SettleTime"`
	LoopDelay   Duration `yaml:"LoopDelay" json:"LoopDelay"`
}

// FilterConfig holds the smoothing constant for the low-pass filter.
type FilterConfig struct {
	Alpha float64 `yaml:"Alpha" json:"Alpha"`
}

// DetectionConfig holds the presence detector tuning.
type DetectionConfig struct {
	ThresholdCm  float64 `yaml:"ThresholdCm" json:"ThresholdCm"`
	HysteresisCm float64 `yaml:"HysteresisCm" json:"HysteresisCm"`
}

// AudioConfig describes where tracks come from and how playback is
// gated.
type AudioConfig struct {
	Device       string   `yaml:"Device" json:"Device"`
	TrackDir     string   `yaml:"TrackDir" json:"TrackDir"`
	Extensions   []string `yaml:"Extensions" json:"Extensions"`
	DaylightOnly bool     `yaml:"DaylightOnly" json:"DaylightOnly"`
	Latitude     float64  `yaml:"Latitude" json:"Latitude"`
	Longitude    float64  `yaml:"Longitude" json:"Longitude"`
}

// ServerConfig enables the small HTTP API for runtime configuration.
type ServerConfig struct {
	Enabled bool   `yaml:"Enabled" json:"Enabled"`
	Addr    string `yaml:"Addr" json:"Addr"`
}

// LogConfig is the logging setup for one run mode.
type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

// LoggingConfig holds separate logging setups for TUI simulation mode
// and for running on the real hardware.
type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

// Config is the complete application configuration as read from the
// YAML config file. RealHW, SensorShow and Configfile are set from the
// command line, not from the file.
type Config struct {
	RealHW     bool   `yaml:"-" json:"-"`
	SensorShow bool   `yaml:"-" json:"-"`
	Configfile string `yaml:"-" json:"-"`

	Sensor    SensorConfig    `yaml:"Sensor" json:"Sensor"`
	Filter    FilterConfig    `yaml:"Filter" json:"Filter"`
	Detection DetectionConfig `yaml:"Detection" json:"Detection"`
	Audio     AudioConfig     `yaml:"Audio" json:"Audio"`
	Server    ServerConfig    `yaml:"Server" json:"Server"`
	Logging   LoggingConfig   `yaml:"Logging" json:"Logging"`
}

var validLogLevels = []string{"DEBUG", "INFO", "WARN", "ERROR"}
var validLogFormats = []string{"text", "json"}

// ReadConfig reads and validates the configuration file. realhw and
// sensorshow come from the command line flags and select between the
// real GPIO platform and the simulation TUI.
func ReadConfig(cfile string, realhw bool, sensorshow bool) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := &Config{}
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}

	conf.RealHW = realhw
	conf.SensorShow = sensorshow
	conf.Configfile = cfile

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

// Validate checks the configuration for values that would make the
// sensing loop or playback misbehave at runtime.
func (c *Config) Validate() error {
	s := c.Sensor
	if s.TriggerPin < 0 || s.EchoPin < 0 {
		return fmt.Errorf("sensor pins must be non-negative (trigger %d, echo %d)", s.TriggerPin, s.EchoPin)
	}
	if s.TriggerPin == s.EchoPin {
		return fmt.Errorf("trigger and echo pin must differ (both %d)", s.TriggerPin)
	}
	if s.EchoTimeout.Duration() <= 0 {
		return fmt.Errorf("sensor EchoTimeout must be positive, got %s", s.EchoTimeout.Duration())
	}
	if s.LoopDelay.Duration() <= 0 {
		return fmt.Errorf("sensor LoopDelay must be positive, got %s", s.LoopDelay.Duration())
	}
	if s.MinRangeCm < 0 || s.MaxRangeCm <= s.MinRangeCm {
		return fmt.Errorf("sensor range [%.1f, %.1f] is not sane", s.MinRangeCm, s.MaxRangeCm)
	}

	if c.Filter.Alpha <= 0 || c.Filter.Alpha > 1 {
		return fmt.Errorf("filter Alpha must be in (0, 1], got %f", c.Filter.Alpha)
	}

	d := c.Detection
	if d.ThresholdCm <= 0 {
		return fmt.Errorf("detection ThresholdCm must be positive, got %.1f", d.ThresholdCm)
	}
	if d.ThresholdCm >= c.Sensor.MaxRangeCm {
		return fmt.Errorf("detection ThresholdCm %.1f is beyond the sensor range %.1f", d.ThresholdCm, c.Sensor.MaxRangeCm)
	}
	if d.HysteresisCm < 0 {
		return fmt.Errorf("detection HysteresisCm must not be negative, got %.1f", d.HysteresisCm)
	}

	a := c.Audio
	if a.TrackDir == "" {
		return fmt.Errorf("audio TrackDir must not be empty")
	}
	if len(a.Extensions) == 0 {
		return fmt.Errorf("audio Extensions must not be empty")
	}
	for _, ext := range a.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("audio extension %q must start with a dot", ext)
		}
	}
	if a.DaylightOnly {
		if a.Latitude < -90 || a.Latitude > 90 || a.Longitude < -180 || a.Longitude > 180 {
			return fmt.Errorf("audio Latitude/Longitude (%f, %f) out of range", a.Latitude, a.Longitude)
		}
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server Addr must not be empty when the server is enabled")
	}

	for _, lc := range []LogConfig{c.Logging.TUI, c.Logging.HW} {
		if lc.Level != "" && !slices.Contains(validLogLevels, lc.Level) {
			return fmt.Errorf("unknown log level %q (valid: %v)", lc.Level, validLogLevels)
		}
		if lc.Format != "" && !slices.Contains(validLogFormats, lc.Format) {
			return fmt.Errorf("unknown log format %q (valid: %v)", lc.Format, validLogFormats)
		}
	}

	return nil
}

// LogSetup returns the logging configuration matching the run mode.
// The simulation TUI owns the terminal, so it gets its own setup.
func (c *Config) LogSetup() LogConfig {
	if c.RealHW || c.SensorShow {
		return c.Logging.HW
	}
	return c.Logging.TUI
}
