package config

import "time"

// Config holds runtime settings for the FinBroker CLI.
//
// Fields:
//   - ServerBaseURL: absolute base of the platform JSON API, including the
//     API prefix (e.g. http://127.0.0.1:8080/api).
//   - StaticPrefix: path prefix of uploaded-file storage served outside the
//     API base.
//   - RequestTimeout: per-request HTTP timeout.
//   - CacheTTL / CacheSize: freshness window and capacity of the resource
//     handle cache.
//   - PollInterval: moderation polling cadence.
//   - SessionDBPath: SQLite file persisting the session between runs.
type Config struct {
	ServerBaseURL  string
	StaticPrefix   string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	CacheSize      int
	PollInterval   time.Duration
	SessionDBPath  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080/api"
	c.StaticPrefix = "/uploads/"
	c.RequestTimeout = 30 * time.Second
	c.CacheTTL = 5 * time.Minute
	c.CacheSize = 128
	c.PollInterval = 10 * time.Second
	c.SessionDBPath = "finbroker.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
