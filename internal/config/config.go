package config

import "time"

// Config holds runtime settings for the offline data layer.
//
// Fields:
//   - APIEndpoint: base URL of the remote backend (e.g. "https://api.example.com").
//   - APIToken: bearer token for authenticated remote calls; may be empty while offline.
//   - DatabaseDSN: SQLite DSN of the local store.
//   - RequestTimeout: per-call timeout for remote HTTP requests.
//   - RetryAttempts: how many times a retryable remote call is re-attempted.
type Config struct {
	APIEndpoint    string
	APIToken       string
	DatabaseDSN    string
	RequestTimeout time.Duration
	RetryAttempts  uint64
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIEndpoint = "http://127.0.0.1:8080"
	c.DatabaseDSN = "offline.db"
	c.RequestTimeout = 12 * time.Second
	c.RetryAttempts = 3
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
