package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
clickhouse:
  host: localhost
kafka:
  brokers: ["localhost:9092"]
  disclosures_topic: disclosures
scan:
  tickers: ["AAPL"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ClickHouse.Database != "smartflow" {
		t.Fatalf("expected default database, got %q", cfg.ClickHouse.Database)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Signals.InsiderWeight != 0.85 {
		t.Fatalf("expected insider weight 0.85, got %f", cfg.Signals.InsiderWeight)
	}
	if len(cfg.Backtest.Horizons) != 3 || cfg.Backtest.Horizons[2] != 30 {
		t.Fatalf("expected default horizons 1/7/30, got %v", cfg.Backtest.Horizons)
	}
	if cfg.Alerts.MinConfidence != 0.7 {
		t.Fatalf("expected alert floor 0.7, got %f", cfg.Alerts.MinConfidence)
	}
	if cfg.Scan.LookbackDays != 30 || cfg.Scan.TopN != 50 {
		t.Fatalf("expected scan defaults, got %+v", cfg.Scan)
	}
	if cfg.WhaleStream.PingInterval != 30*time.Second {
		t.Fatalf("expected default ping interval 30s, got %v", cfg.WhaleStream.PingInterval)
	}
	if cfg.WhaleStream.ReconnectDelay != 5*time.Second {
		t.Fatalf("expected default reconnect delay 5s, got %v", cfg.WhaleStream.ReconnectDelay)
	}
}

func TestLoadDefaultsWhaleStreamIntervalsWhenEnabled(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
whalestream:
  enabled: true
  backend: kafka
  websocket_url: wss://ws.example.io/v1
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WhaleStream.PingInterval <= 0 {
		t.Fatalf("ping interval must be positive, got %v", cfg.WhaleStream.PingInterval)
	}
	if cfg.WhaleStream.ReconnectDelay <= 0 {
		t.Fatalf("reconnect delay must be positive, got %v", cfg.WhaleStream.ReconnectDelay)
	}
}

func TestLoadRejectsIncomplete(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing environment", `
clickhouse: {host: localhost}
kafka: {brokers: ["b:9092"], disclosures_topic: d}
scan: {tickers: ["AAPL"]}
`},
		{"missing clickhouse host", `
environment: test
kafka: {brokers: ["b:9092"], disclosures_topic: d}
scan: {tickers: ["AAPL"]}
`},
		{"missing brokers", `
environment: test
clickhouse: {host: localhost}
kafka: {disclosures_topic: d}
scan: {tickers: ["AAPL"]}
`},
		{"missing tickers", `
environment: test
clickhouse: {host: localhost}
kafka: {brokers: ["b:9092"], disclosures_topic: d}
`},
		{"bad whalestream backend", `
environment: test
clickhouse: {host: localhost}
kafka: {brokers: ["b:9092"], disclosures_topic: d}
scan: {tickers: ["AAPL"]}
whalestream: {enabled: true, websocket_url: "wss://x", backend: "postgres"}
`},
		{"unsupported backtest horizon", `
environment: test
clickhouse: {host: localhost}
kafka: {brokers: ["b:9092"], disclosures_topic: d}
scan: {tickers: ["AAPL"]}
backtest: {horizons: [1, 14, 30]}
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SCAN_TICKERS", "TSLA,AMD")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" {
		t.Fatalf("expected broker override, got %v", cfg.Kafka.Brokers)
	}
	if len(cfg.Scan.Tickers) != 2 || cfg.Scan.Tickers[1] != "AMD" {
		t.Fatalf("expected ticker override, got %v", cfg.Scan.Tickers)
	}
}
