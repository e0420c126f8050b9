package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FinCast/pkg/util"
)

// ProfileConfig overrides the defaults of one forecasting model kind.
type ProfileConfig struct {
	Window     int     `yaml:"window"`
	Horizon    int     `yaml:"horizon"`
	BoundSigma float64 `yaml:"bound_sigma"`
	Scaler     string  `yaml:"scaler"`
	Calendar   *bool   `yaml:"calendar_features"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            bool          `yaml:"cors"`
		RateLimit       struct {
			Enabled      bool    `yaml:"enabled"`
			Capacity     float64 `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Logging struct {
		Level              string        `yaml:"level"`
		Format             string        `yaml:"format"`
		Output             string        `yaml:"output"`
		CollectorTopic     string        `yaml:"collector_topic"`
		CollectorInterval  time.Duration `yaml:"collector_interval"`
		CollectorThreshold int           `yaml:"collector_threshold"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Tracing struct {
		Enabled     bool   `yaml:"enabled"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`
	Providers struct {
		Order     []string      `yaml:"order"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
		Stooq     struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"stooq"`
		Yahoo struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"yahoo"`
	} `yaml:"providers"`
	Cache struct {
		MaxEntries int `yaml:"max_entries"`
		Redis      struct {
			Enabled  bool          `yaml:"enabled"`
			Addr     string        `yaml:"addr"`
			Password string        `yaml:"password"`
			DB       int           `yaml:"db"`
			PoolSize int           `yaml:"pool_size"`
			Prefix   string        `yaml:"prefix"`
			TTL      time.Duration `yaml:"ttl"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Forecast struct {
		Backend  string                   `yaml:"backend"`
		Profiles map[string]ProfileConfig `yaml:"profiles"`
	} `yaml:"forecast"`
	Analytics struct {
		PythonServiceURL string        `yaml:"python_service_url"`
		Timeout          time.Duration `yaml:"timeout"`
		RetryAttempts    int           `yaml:"retry_attempts"`
	} `yaml:"analytics"`
	Symbols []string `yaml:"symbols"`
	Kafka   struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Topics       struct {
			Datasets  string `yaml:"datasets"`
			Forecasts string `yaml:"forecasts"`
			Prefetch  string `yaml:"prefetch"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
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
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration that runs fully offline-capable with
// in-process cache and local forecasters.
func Default() *Config {
	c := &Config{Environment: "development"}
	c.Server.CORS = true
	c.Metrics.Enabled = true
	c.applyDefaults()
	return c
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

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file in the working directory is read first when present.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINCAST_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("FINCAST_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PROVIDERS"); v != "" {
		c.Providers.Order = util.SplitList(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Enabled = true
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("ANALYTICS_URL"); v != "" {
		c.Analytics.PythonServiceURL = v
	}
	if v := os.Getenv("FORECAST_BACKEND"); v != "" {
		c.Forecast.Backend = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 20
	}
	if c.Server.RateLimit.RefillPerSec == 0 {
		c.Server.RateLimit.RefillPerSec = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Logging.CollectorInterval == 0 {
		c.Logging.CollectorInterval = 30 * time.Second
	}
	if c.Logging.CollectorThreshold == 0 {
		c.Logging.CollectorThreshold = 100
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "fincast"
	}
	if len(c.Providers.Order) == 0 {
		c.Providers.Order = []string{"stooq", "yahoo"}
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = 10 * time.Second
	}
	if c.Providers.UserAgent == "" {
		c.Providers.UserAgent = "Mozilla/5.0 (compatible; fincast/1.0)"
	}
	if c.Providers.Stooq.BaseURL == "" {
		c.Providers.Stooq.BaseURL = "https://stooq.com"
	}
	if c.Providers.Yahoo.BaseURL == "" {
		c.Providers.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 256
	}
	if c.Cache.Redis.PoolSize == 0 {
		c.Cache.Redis.PoolSize = 10
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "fincast"
	}
	if c.Cache.Redis.TTL == 0 {
		c.Cache.Redis.TTL = 24 * time.Hour
	}
	if c.Forecast.Backend == "" {
		c.Forecast.Backend = "local"
	}
	if c.Analytics.Timeout == 0 {
		c.Analytics.Timeout = 60 * time.Second
	}
	if c.Analytics.RetryAttempts == 0 {
		c.Analytics.RetryAttempts = 1
	}
	if c.Kafka.Compression == "" {
		c.Kafka.Compression = "gzip"
	}
	if c.Kafka.Topics.Datasets == "" {
		c.Kafka.Topics.Datasets = "fincast.datasets"
	}
	if c.Kafka.Topics.Forecasts == "" {
		c.Kafka.Topics.Forecasts = "fincast.forecasts"
	}
	if c.Kafka.Topics.Prefetch == "" {
		c.Kafka.Topics.Prefetch = "fincast.prefetch"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "fincast"
	}
	if c.Kafka.Consumer.Workers == 0 {
		c.Kafka.Consumer.Workers = 2
	}
	if c.ClickHouse.Port == 0 {
		c.ClickHouse.Port = 9000
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "fincast"
	}
	if c.ClickHouse.Table == "" {
		c.ClickHouse.Table = "daily_candles"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	for _, p := range c.Providers.Order {
		switch p {
		case "stooq", "yahoo":
		case "archive":
			if !c.ClickHouse.Enabled {
				return fmt.Errorf("providers.order: 'archive' requires clickhouse.enabled")
			}
		default:
			return fmt.Errorf("providers.order: unknown provider '%s'", p)
		}
	}
	switch c.Forecast.Backend {
	case "local":
	case "remote":
		if c.Analytics.PythonServiceURL == "" {
			return fmt.Errorf("forecast.backend 'remote' requires analytics.python_service_url")
		}
	default:
		return fmt.Errorf("forecast.backend must be 'local' or 'remote', got '%s'", c.Forecast.Backend)
	}
	for kind, p := range c.Forecast.Profiles {
		if p.Scaler != "" && p.Scaler != "minmax" && p.Scaler != "standard" {
			return fmt.Errorf("forecast.profiles.%s.scaler must be 'minmax' or 'standard'", kind)
		}
		if p.Window < 0 || p.Horizon < 0 || p.BoundSigma < 0 {
			return fmt.Errorf("forecast.profiles.%s: negative values are not allowed", kind)
		}
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be positive")
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
