package config

// RuntimeConfig defines the subset of the configuration that can be
// safely modified while the application is running, through the web
// API or by editing the config file. It excludes the hardware wiring
// and other settings that require a restart.
type RuntimeConfig struct {
	Filter    FilterConfig    `yaml:"Filter" json:"Filter"`
	Detection DetectionConfig `yaml:"Detection" json:"Detection"`
}
