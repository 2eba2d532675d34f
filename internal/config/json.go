package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/splitsync/internal/flagx"
	"github.com/dmitrijs2005/splitsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "5m"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	BankEndpointAddr    string         `json:"bank_endpoint_addr"`
	BankAPIKey          string         `json:"bank_api_key"`
	BankRefreshCooldown timex.Duration `json:"bank_refresh_cooldown"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; when no
// path is given the function returns without touching cfg. Intended usage
// is defaults -> parseJson -> parseFlags, where later stages override
// earlier ones.
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

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	cfg.BankEndpointAddr = jc.BankEndpointAddr
	cfg.BankAPIKey = jc.BankAPIKey
	cfg.BankRefreshCooldown = time.Duration(jc.BankRefreshCooldown.Duration)
}
