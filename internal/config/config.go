// Package config handles meshorder CLI configuration loading.
package config

// Config holds all front-end settings.
type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Overdraw  OverdrawConfig  `yaml:"overdraw"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// OptimizerConfig holds the reordering pipeline settings.
type OptimizerConfig struct {
	CacheSize      int     `yaml:"cache_size"`
	Winding        string  `yaml:"winding"`  // "ccw" or "cw"
	Strategy       string  `yaml:"strategy"` // auto, lstrips, tipsy, d3d
	TargetClusters int     `yaml:"target_clusters"`
	Alpha          float32 `yaml:"alpha"` // fast path only; 0 = default
}

// OverdrawConfig holds the ray-traced overdraw settings.
type OverdrawConfig struct {
	Optimizer      string `yaml:"optimizer"` // auto, raytrace, fast
	Resolution     int    `yaml:"resolution"`
	ViewpointsFile string `yaml:"viewpoints_file"` // empty = built-in set
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the library's documented defaults.
func Default() *Config {
	return &Config{
		Optimizer: OptimizerConfig{
			CacheSize:      24,
			Winding:        "ccw",
			Strategy:       "auto",
			TargetClusters: 0,
			Alpha:          0,
		},
		Overdraw: OverdrawConfig{
			Optimizer:  "auto",
			Resolution: 256,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
