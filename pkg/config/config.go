package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"UMKMForecast/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error fatal panic"`
		Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"5m"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Forecast struct {
		BaseURL       string        `yaml:"base_url" default:"http://localhost:8000" validate:"required,url"`
		Timeout       time.Duration `yaml:"timeout" default:"30s"`
		TrainTimeout  time.Duration `yaml:"train_timeout" default:"10m"`
		RetryAttempts int           `yaml:"retry_attempts" default:"3" validate:"gte=1,lte=10"`
		TopProducts   int           `yaml:"top_products" default:"5" validate:"gte=1,lte=50"`
	} `yaml:"forecast"`
	Session struct {
		TTL     time.Duration `yaml:"ttl" default:"24h"`
		LockTTL time.Duration `yaml:"lock_ttl" default:"15m"`
	} `yaml:"session"`
	Redis struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		Prefix       string        `yaml:"prefix" default:"umkm"`
		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
	} `yaml:"redis"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Workers    int           `yaml:"workers" default:"2" validate:"gte=1"`
		RetryLimit int           `yaml:"retry_limit" default:"2" validate:"gte=0"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"30s"`
	} `yaml:"queue"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"umkm.sessions"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"50"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity" default:"5"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"0.2"`
	} `yaml:"rate_limit"`
}

var validate = validator.New()

// Default returns a configuration populated only from struct defaults.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
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

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := getenv("FORECAST_API_URL"); v != "" {
		c.Forecast.BaseURL = strings.TrimRight(v, "/")
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR port: %w", err)
		}
		c.Redis.Host, c.Redis.Port = host, p
		c.Redis.Enabled = true
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	c.Queue.Enabled = util.ParseBoolDefault(getenv("QUEUE_ENABLED"), c.Queue.Enabled)
	c.Forecast.TopProducts = util.ParseIntDefault(getenv("FORECAST_TOP_PRODUCTS"), c.Forecast.TopProducts)
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Forecast.BaseURL, "http://") && !strings.HasPrefix(c.Forecast.BaseURL, "https://") {
		return fmt.Errorf("forecast.base_url must be an http(s) URL, got '%s'", c.Forecast.BaseURL)
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue.enabled requires redis.enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}
