package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/finbroker/internal/flagx"
	"github.com/dmitrijs2005/finbroker/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// may be given either as strings like "5m" or as integer nanoseconds.
type JsonConfig struct {
	ServerBaseURL  string         `json:"server_base_url"`
	StaticPrefix   string         `json:"static_prefix"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	CacheTTL       timex.Duration `json:"cache_ttl"`
	CacheSize      int            `json:"cache_size"`
	PollInterval   timex.Duration `json:"poll_interval"`
	SessionDBPath  string         `json:"session_db_path"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flags. Missing flag means no JSON is loaded; zero values in
// the file leave the current setting untouched. Read or unmarshal errors
// panic, matching the fail-fast startup behavior of flag parsing.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.StaticPrefix != "" {
		cfg.StaticPrefix = jc.StaticPrefix
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.CacheTTL.Duration != 0 {
		cfg.CacheTTL = jc.CacheTTL.Duration
	}
	if jc.CacheSize != 0 {
		cfg.CacheSize = jc.CacheSize
	}
	if jc.PollInterval.Duration != 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.SessionDBPath != "" {
		cfg.SessionDBPath = jc.SessionDBPath
	}
}
