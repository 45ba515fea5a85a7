package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration. Defaults mirror the
// reference deployment; every value can be overridden per environment.
type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development production"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	Metrics struct {
		Path string `yaml:"path" default:"/prometheus"`
	} `yaml:"metrics"`

	Model struct {
		Path                string `yaml:"path" validate:"required"`
		ScalerPath          string `yaml:"scaler_path" validate:"required"`
		MaxPredictionBatch  int    `yaml:"max_prediction_batch" default:"1000" validate:"gte=1"`
		MaxExplanationBatch int    `yaml:"max_explanation_batch" default:"10" validate:"gte=1"`
	} `yaml:"model"`

	RateLimit struct {
		Enabled        bool   `yaml:"enabled" default:"true"`
		Store          string `yaml:"store" default:"memory" validate:"oneof=memory redis"`
		DefaultPerDay  int    `yaml:"default_per_day" default:"200" validate:"gte=1"`
		DefaultPerHour int    `yaml:"default_per_hour" default:"50" validate:"gte=1"`
		PredictPerHour int    `yaml:"predict_per_hour" default:"100" validate:"gte=1"`
		ExplainPerHour int    `yaml:"explain_per_hour" default:"50" validate:"gte=1"`
		Redis          struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"volatiq"`
		} `yaml:"redis"`
	} `yaml:"rate_limit"`

	Audit struct {
		Backend    string `yaml:"backend" default:"none" validate:"oneof=none kafka clickhouse"`
		BufferSize int    `yaml:"buffer_size" default:"256"`
		Kafka      struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic" default:"volatiq.audit"`
			Compression  string        `yaml:"compression" default:"gzip"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Host        string        `yaml:"host" default:"localhost"`
			Port        int           `yaml:"port" default:"9000"`
			Database    string        `yaml:"database" default:"volatiq"`
			Table       string        `yaml:"table" default:"prediction_audit"`
			User        string        `yaml:"user" default:"default"`
			Password    string        `yaml:"password"`
			DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"clickhouse"`
	} `yaml:"audit"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes configuration from YAML bytes.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("API_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("API_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("SCALER_PATH"); v != "" {
		c.Model.ScalerPath = v
	}
	if v := os.Getenv("MAX_PREDICTION_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MAX_PREDICTION_BATCH_SIZE: %w", err)
		}
		c.Model.MaxPredictionBatch = n
	}
	if v := os.Getenv("RATE_LIMIT_STORE"); v != "" {
		c.RateLimit.Store = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RateLimit.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RateLimit.Redis.Password = v
	}
	if v := os.Getenv("AUDIT_BACKEND"); v != "" {
		c.Audit.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Audit.Kafka.Brokers = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Audit.Backend == "kafka" && len(c.Audit.Kafka.Brokers) == 0 {
		return fmt.Errorf("audit.kafka.brokers cannot be empty when audit backend is kafka")
	}
	return nil
}
