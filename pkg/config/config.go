package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Storage struct {
		Type string `yaml:"type" default:"clickhouse"`
	} `yaml:"storage"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"posture.results"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"volposture"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Cache struct {
		Backend string `yaml:"backend" default:"memory"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RollingCache struct {
		Path         string `yaml:"path" default:"data/rolling_cache.json"`
		SymbolWindow int    `yaml:"symbol_window" default:"60"`
		VIXWindow    int    `yaml:"vix_window" default:"20"`
		// Cron spec for pruning stale symbols from the rolling window.
		CleanupSchedule string `yaml:"cleanup_schedule" default:"0 3 * * *"`
		MaxAgeDays      int    `yaml:"max_age_days" default:"120"`
	} `yaml:"rolling_cache"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Scoring    ScoringConfig    `yaml:"scoring"`
}

// MarketDataConfig configures the VIX quote providers.
type MarketDataConfig struct {
	AlphaVantageKey string        `yaml:"alpha_vantage_key"`
	AlphaVantageURL string        `yaml:"alpha_vantage_url" default:"https://www.alphavantage.co/query"`
	YahooChartURL   string        `yaml:"yahoo_chart_url" default:"https://query1.finance.yahoo.com/v8/finance/chart"`
	Timeout         time.Duration `yaml:"timeout" default:"10s"`
	VIXCacheTTL     time.Duration `yaml:"vix_cache_ttl" default:"6h"`
}

// ProvidersConfig configures the bulk IV-terms and delta-OI fetchers.
type ProvidersConfig struct {
	IVTermsURL string        `yaml:"iv_terms_url"`
	DeltaOIURL string        `yaml:"delta_oi_url"`
	Timeout    time.Duration `yaml:"timeout" default:"15s"`
	Workers    int           `yaml:"workers" default:"4"`
	RatePerSec float64       `yaml:"rate_per_sec" default:"5"`
	Burst      int           `yaml:"burst" default:"5"`
	RetryMax   int           `yaml:"retry_max" default:"2"`
	RetryDelay time.Duration `yaml:"retry_delay" default:"500ms"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Parse(b)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Parse decodes YAML bytes, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Scoring.resolveAliases(); err != nil {
		return nil, fmt.Errorf("resolve quadrant aliases: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.MarketData.AlphaVantageKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("ROLLING_CACHE_PATH"); v != "" {
		c.RollingCache.Path = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Storage.Type != "clickhouse" && c.Storage.Type != "memory" {
		return fmt.Errorf("storage.type must be 'clickhouse' or 'memory', got '%s'", c.Storage.Type)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.RollingCache.SymbolWindow <= 0 || c.RollingCache.VIXWindow <= 0 {
		return fmt.Errorf("rolling_cache windows must be positive")
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	return nil
}
