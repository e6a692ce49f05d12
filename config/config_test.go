package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const validConfigYaml = `
Sensor:
  TriggerPin: 27
  EchoPin: 17
  EchoTimeout: 30ms
  MinRangeCm: 2
  MaxRangeCm: 400
  SettleTime: 50ms
  LoopDelay: 100ms
Filter:
  Alpha: 0.35
Detection:
  ThresholdCm: 100
  HysteresisCm: 10
Audio:
  Device: ""
  TrackDir: "./data"
  Extensions: [".wav"]
  DaylightOnly: false
Server:
  Enabled: false
  Addr: "localhost:8080"
Logging:
  TUI:
    Level: "DEBUG"
    Format: "text"
    File: "/tmp/playsound-tui.log"
  HW:
    Level: "INFO"
    Format: "json"
    File: ""
`

// writeTempConfig writes content to a temp config file and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	cfile := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(cfile, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return cfile
}

func TestReadConfig(t *testing.T) {
	cfile := writeTempConfig(t, validConfigYaml)

	conf, err := ReadConfig(cfile, true, false)
	assert.NoError(t, err)

	assert.True(t, conf.RealHW)
	assert.False(t, conf.SensorShow)
	assert.Equal(t, cfile, conf.Configfile)

	assert.Equal(t, 27, conf.Sensor.TriggerPin)
	assert.Equal(t, 17, conf.Sensor.EchoPin)
	assert.Equal(t, 30*time.Millisecond, conf.Sensor.EchoTimeout.Duration())
	assert.Equal(t, 100*time.Millisecond, conf.Sensor.LoopDelay.Duration())
	assert.Equal(t, 400.0, conf.Sensor.MaxRangeCm)

	assert.Equal(t, 0.35, conf.Filter.Alpha)
	assert.Equal(t, 100.0, conf.Detection.ThresholdCm)
	assert.Equal(t, 10.0, conf.Detection.HysteresisCm)

	assert.Equal(t, "./data", conf.Audio.TrackDir)
	assert.Equal(t, []string{".wav"}, conf.Audio.Extensions)

	assert.Equal(t, "DEBUG", conf.Logging.TUI.Level)
	assert.Equal(t, "json", conf.Logging.HW.Format)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig("/nonexistent/config.yml", false, false)
	assert.Error(t, err)
}

func TestReadConfig_BadDuration(t *testing.T) {
	cfile := writeTempConfig(t, strings.Replace(validConfigYaml, "30ms", "soon", 1))
	_, err := ReadConfig(cfile, false, false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "same pins",
			mutate:  func(c *Config) { c.Sensor.EchoPin = c.Sensor.TriggerPin },
			wantErr: "must differ",
		},
		{
			name:    "negative pin",
			mutate:  func(c *Config) { c.Sensor.TriggerPin = -1 },
			wantErr: "non-negative",
		},
		{
			name:    "zero echo timeout",
			mutate:  func(c *Config) { c.Sensor.EchoTimeout = 0 },
			wantErr: "EchoTimeout",
		},
		{
			name:    "zero loop delay",
			mutate:  func(c *Config) { c.Sensor.LoopDelay = 0 },
			wantErr: "LoopDelay",
		},
		{
			name:    "inverted range",
			mutate:  func(c *Config) { c.Sensor.MaxRangeCm = 1 },
			wantErr: "not sane",
		},
		{
			name:    "alpha too big",
			mutate:  func(c *Config) { c.Filter.Alpha = 1.5 },
			wantErr: "Alpha",
		},
		{
			name:    "alpha zero",
			mutate:  func(c *Config) { c.Filter.Alpha = 0 },
			wantErr: "Alpha",
		},
		{
			name:    "threshold beyond range",
			mutate:  func(c *Config) { c.Detection.ThresholdCm = 500 },
			wantErr: "beyond the sensor range",
		},
		{
			name:    "negative hysteresis",
			mutate:  func(c *Config) { c.Detection.HysteresisCm = -1 },
			wantErr: "HysteresisCm",
		},
		{
			name:    "empty track dir",
			mutate:  func(c *Config) { c.Audio.TrackDir = "" },
			wantErr: "TrackDir",
		},
		{
			name:    "extension without dot",
			mutate:  func(c *Config) { c.Audio.Extensions = []string{"wav"} },
			wantErr: "must start with a dot",
		},
		{
			name: "daylight without coordinates",
			mutate: func(c *Config) {
				c.Audio.DaylightOnly = true
				c.Audio.Latitude = 95
			},
			wantErr: "out of range",
		},
		{
			name: "server enabled without addr",
			mutate: func(c *Config) {
				c.Server.Enabled = true
				c.Server.Addr = ""
			},
			wantErr: "Addr",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.HW.Level = "VERBOSE" },
			wantErr: "unknown log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.TUI.Format = "xml" },
			wantErr: "unknown log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfile := writeTempConfig(t, validConfigYaml)
			conf, err := ReadConfig(cfile, false, false)
			if err != nil {
				t.Fatalf("base config should be valid: %v", err)
			}
			tt.mutate(conf)
			err = conf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLogSetup(t *testing.T) {
	cfile := writeTempConfig(t, validConfigYaml)

	conf, err := ReadConfig(cfile, false, false)
	assert.NoError(t, err)
	assert.Equal(t, "DEBUG", conf.LogSetup().Level, "TUI mode uses the TUI log setup")

	conf, err = ReadConfig(cfile, true, false)
	assert.NoError(t, err)
	assert.Equal(t, "INFO", conf.LogSetup().Level, "real hardware uses the HW log setup")
}
