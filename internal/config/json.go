package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/Arwen-Digital/SermonSpark-sub003/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Timeouts are
// given in whole seconds so config files stay free of duration syntax.
type JsonConfig struct {
	APIEndpoint           string `json:"api_endpoint"`
	APIToken              string `json:"api_token"`
	DatabaseDSN           string `json:"database_dsn"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	RetryAttempts         uint64 `json:"retry_attempts"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; if neither is set, nothing is loaded.
// Only fields present in the file override the current values.
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

	if jc.APIEndpoint != "" {
		cfg.APIEndpoint = jc.APIEndpoint
	}
	if jc.APIToken != "" {
		cfg.APIToken = jc.APIToken
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeoutSeconds) * time.Second
	}
	if jc.RetryAttempts > 0 {
		cfg.RetryAttempts = jc.RetryAttempts
	}
}
