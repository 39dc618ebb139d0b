// Package config loads runtime settings for the paysync CLI: defaults,
// overlaid by an optional JSON file, overlaid by command-line flags.
package config

import "time"

// Config holds runtime settings.
//
// Fields:
//   - RemoteAddr: base URL of the remote payment store.
//   - DatabasePath: path of the local SQLite database.
//   - CallTimeout: per remote call timeout.
//   - OnlineCheckInterval: how often the app probes remote reachability.
type Config struct {
	RemoteAddr          string
	DatabasePath        string
	CallTimeout         time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.RemoteAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "paysync.db"
	c.CallTimeout = 15 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
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
