package config

import "time"

// Config holds runtime settings for the SplitSync client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the sync authority's JSON API.
//   - DatabaseDSN: path of the local sqlite database file.
//   - SyncInterval: how often the scheduler fires a sync run.
//   - BankEndpointAddr: base URL of the banking aggregator API.
//   - BankAPIKey: bearer token for the aggregator.
//   - BankRefreshCooldown: minimum gap between aggregator fetches per
//     requisition.
type Config struct {
	ServerEndpointAddr  string
	DatabaseDSN         string
	SyncInterval        time.Duration
	BankEndpointAddr    string
	BankAPIKey          string
	BankRefreshCooldown time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabaseDSN = "splitsync.db"
	c.SyncInterval = 5 * time.Minute
	c.BankEndpointAddr = "http://127.0.0.1:8090"
	c.BankRefreshCooldown = 15 * time.Minute
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
