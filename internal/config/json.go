package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkazakov/paysync/internal/flagx"
	"github.com/dkazakov/paysync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds.
type JsonConfig struct {
	RemoteAddr          string         `json:"remote_addr"`
	DatabasePath        string         `json:"database_path"`
	CallTimeout         timex.Duration `json:"call_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from a JSON file whose path is
// given via the -c/-config flags. Missing flag means no JSON is loaded.
// Read or unmarshal errors panic (caller may recover).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}
	if err := LoadJSONFile(cfg, jsonConfigFile); err != nil {
		panic(err)
	}
}

// LoadJSONFile overlays Config with values from the JSON file at path.
// Zero-valued JSON fields leave the current Config value untouched.
func LoadJSONFile(cfg *Config, path string) error {
	var jc JsonConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.RemoteAddr != "" {
		cfg.RemoteAddr = jc.RemoteAddr
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.CallTimeout.Duration != 0 {
		cfg.CallTimeout = time.Duration(jc.CallTimeout.Duration)
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	return nil
}
