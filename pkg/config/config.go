package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Logging     struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		AsyncInsert      bool          `yaml:"async_insert"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers          []string `yaml:"brokers"`
		DisclosuresTopic string   `yaml:"disclosures_topic"`
		SignalsTopic     string   `yaml:"signals_topic"`
		RequiredAcks     int      `yaml:"required_acks"`
		Compression      string   `yaml:"compression"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Prices struct {
		BaseURL      string        `yaml:"base_url"`
		Timeout      time.Duration `yaml:"timeout"`
		RatePerSec   float64       `yaml:"rate_per_sec"`
		RateBurst    float64       `yaml:"rate_burst"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
		FetchWorkers int           `yaml:"fetch_workers"`
	} `yaml:"prices"`
	WhaleStream struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		Symbols        []string      `yaml:"symbols"`
		MinValueUSD    float64       `yaml:"min_value_usd"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		Backend        string        `yaml:"backend"` // kafka or clickhouse
	} `yaml:"whalestream"`
	Signals  SignalsConfig  `yaml:"signals"`
	Backtest BacktestConfig `yaml:"backtest"`
	Scan     struct {
		Tickers      []string      `yaml:"tickers"`
		Crypto       []string      `yaml:"crypto"`
		LookbackDays int           `yaml:"lookback_days"`
		Interval     time.Duration `yaml:"interval"`
		TopN         int           `yaml:"top_n"`
	} `yaml:"scan"`
	Alerts struct {
		MinConfidence float64 `yaml:"min_confidence"`
		Telegram      struct {
			Enabled  bool   `yaml:"enabled"`
			BotToken string `yaml:"bot_token"`
			ChatID   string `yaml:"chat_id"`
		} `yaml:"telegram"`
		Discord struct {
			Enabled    bool   `yaml:"enabled"`
			WebhookURL string `yaml:"webhook_url"`
		} `yaml:"discord"`
	} `yaml:"alerts"`
}

// SignalsConfig holds the tunable weights and thresholds of the signal
// engine. Zero values are replaced by the documented defaults, so an empty
// config section behaves like the stock engine.
type SignalsConfig struct {
	InstitutionalWeight float64 `yaml:"institutional_weight"`
	InsiderWeight       float64 `yaml:"insider_weight"`
	CongressionalWeight float64 `yaml:"congressional_weight"`
	OptionsFlowWeight   float64 `yaml:"options_flow_weight"`
	CryptoWhaleWeight   float64 `yaml:"crypto_whale_weight"`
	UnknownSourceWeight float64 `yaml:"unknown_source_weight"`
	CrossSignalBonus    float64 `yaml:"cross_signal_bonus"`
	ScoreFloor          float64 `yaml:"score_floor"`

	CongressionalMinTrades int     `yaml:"congressional_min_trades"`
	InsiderMinCount        int     `yaml:"insider_min_count"`
	InstitutionalMinFilers int     `yaml:"institutional_min_filers"`
	WhaleMinNetFlowUSD     float64 `yaml:"whale_min_net_flow_usd"`
	WhaleFlowScaleUSD      float64 `yaml:"whale_flow_scale_usd"`

	ExpiryDays int `yaml:"expiry_days"`
}

// BacktestConfig holds backtester policy knobs.
type BacktestConfig struct {
	Horizons    []int `yaml:"horizons"`     // trading-day offsets, must be a subset of 1,7,30
	WindowDays  int   `yaml:"window_days"`  // max gain/drawdown window, default 30
	Concurrency int   `yaml:"concurrency"`  // parallel per-signal backtests
	LeadDays    int   `yaml:"lead_days"`    // fetch this many days before signal date
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and endpoints
// from environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Alerts.Telegram.BotToken = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		c.Alerts.Discord.WebhookURL = v
	}
	if v := os.Getenv("WHALE_API_KEY"); v != "" {
		c.WhaleStream.APIKey = v
	}
	if v := os.Getenv("SCAN_TICKERS"); v != "" {
		c.Scan.Tickers = strings.Split(v, ",")
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "smartflow"
	}
	if c.ClickHouse.DialTimeout <= 0 {
		c.ClickHouse.DialTimeout = 5 * time.Second
	}
	if c.ClickHouse.ReadTimeout <= 0 {
		c.ClickHouse.ReadTimeout = 30 * time.Second
	}
	if c.ClickHouse.MaxExecutionTime <= 0 {
		c.ClickHouse.MaxExecutionTime = 60 * time.Second
	}
	if c.WhaleStream.ReconnectDelay <= 0 {
		c.WhaleStream.ReconnectDelay = 5 * time.Second
	}
	if c.WhaleStream.PingInterval <= 0 {
		c.WhaleStream.PingInterval = 30 * time.Second
	}
	if c.Prices.BaseURL == "" {
		c.Prices.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Prices.Timeout <= 0 {
		c.Prices.Timeout = 10 * time.Second
	}
	if c.Kafka.Producer.WriteTimeout <= 0 {
		c.Kafka.Producer.WriteTimeout = 10 * time.Second
	}
	if c.Kafka.Producer.BatchSize <= 0 {
		c.Kafka.Producer.BatchSize = 100
	}
	if c.Kafka.Producer.Linger <= 0 {
		c.Kafka.Producer.Linger = 50 * time.Millisecond
	}
	if c.Kafka.Producer.MaxAttempts <= 0 {
		c.Kafka.Producer.MaxAttempts = 3
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "smartflow-disclosures"
	}
	if c.Kafka.Consumer.Workers <= 0 {
		c.Kafka.Consumer.Workers = 4
	}
	if c.Kafka.Consumer.BufferSize <= 0 {
		c.Kafka.Consumer.BufferSize = 256
	}
	if c.Kafka.Consumer.RetryMax <= 0 {
		c.Kafka.Consumer.RetryMax = 3
	}
	if c.Kafka.Consumer.BackoffMin <= 0 {
		c.Kafka.Consumer.BackoffMin = 200 * time.Millisecond
	}
	if c.Kafka.Consumer.BackoffMax <= 0 {
		c.Kafka.Consumer.BackoffMax = 5 * time.Second
	}
	if c.Scan.LookbackDays <= 0 {
		c.Scan.LookbackDays = 30
	}
	if c.Scan.TopN <= 0 {
		c.Scan.TopN = 50
	}
	if c.Alerts.MinConfidence <= 0 {
		c.Alerts.MinConfidence = 0.7
	}
	if c.Prices.FetchWorkers <= 0 {
		c.Prices.FetchWorkers = 4
	}
	c.Signals = c.Signals.WithDefaults()
	c.Backtest = c.Backtest.WithDefaults()
}

// WithDefaults fills zero fields with the stock engine parameters.
func (s SignalsConfig) WithDefaults() SignalsConfig {
	def := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	def(&s.InstitutionalWeight, 0.9)
	def(&s.InsiderWeight, 0.85)
	def(&s.CongressionalWeight, 0.6)
	def(&s.OptionsFlowWeight, 0.5)
	def(&s.CryptoWhaleWeight, 0.5)
	def(&s.UnknownSourceWeight, 0.5)
	def(&s.CrossSignalBonus, 1.5)
	def(&s.ScoreFloor, 0.5)
	def(&s.WhaleMinNetFlowUSD, 250_000)
	def(&s.WhaleFlowScaleUSD, 5_000_000)
	if s.CongressionalMinTrades <= 0 {
		s.CongressionalMinTrades = 2
	}
	if s.InsiderMinCount <= 0 {
		s.InsiderMinCount = 3
	}
	if s.InstitutionalMinFilers <= 0 {
		s.InstitutionalMinFilers = 2
	}
	if s.ExpiryDays <= 0 {
		s.ExpiryDays = 30
	}
	return s
}

// WithDefaults fills zero fields with the stock backtest policy.
func (b BacktestConfig) WithDefaults() BacktestConfig {
	if len(b.Horizons) == 0 {
		b.Horizons = []int{1, 7, 30}
	}
	if b.WindowDays <= 0 {
		b.WindowDays = 30
	}
	if b.Concurrency <= 0 {
		b.Concurrency = 8
	}
	if b.LeadDays <= 0 {
		b.LeadDays = 1
	}
	return b
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.Kafka.DisclosuresTopic == "" {
		return fmt.Errorf("kafka.disclosures_topic is required")
	}
	if c.WhaleStream.Enabled {
		if c.WhaleStream.WebSocketURL == "" {
			return fmt.Errorf("whalestream.websocket_url is required when enabled")
		}
		if c.WhaleStream.Backend != "kafka" && c.WhaleStream.Backend != "clickhouse" {
			return fmt.Errorf("whalestream.backend must be 'kafka' or 'clickhouse', got '%s'", c.WhaleStream.Backend)
		}
	}
	if len(c.Scan.Tickers) == 0 {
		return fmt.Errorf("scan.tickers cannot be empty")
	}
	// The summary only reports 1, 7 and 30 day returns.
	for _, h := range c.Backtest.Horizons {
		if h != 1 && h != 7 && h != 30 {
			return fmt.Errorf("backtest.horizons must be a subset of [1, 7, 30], got %d", h)
		}
	}
	return nil
}
