package config

import "time"

// Config holds runtime settings for the AcqBridge host and CLI.
//
// Fields:
//   - DBPath: path to the sqlite database holding credentials and settings.
//     Empty means "resolve a per-user data directory at startup".
//   - RequestTimeout: per-request deadline for acquisitions API calls.
//
// Units: RequestTimeout is a time.Duration (e.g., 15*time.Second).
type Config struct {
	DBPath         string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = ""
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
