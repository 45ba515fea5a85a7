package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
model:
  path: model/saved_model/volatility_model.json
  scaler_path: model/saved_model/scaler.json
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if c.Environment != "development" {
		t.Fatalf("environment = %q", c.Environment)
	}
	if c.Server.Port != 8080 || c.Server.WriteTimeout != 30*time.Second {
		t.Fatalf("server defaults = %+v", c.Server)
	}
	if c.Metrics.Path != "/prometheus" {
		t.Fatalf("metrics path = %q", c.Metrics.Path)
	}
	if c.Model.MaxPredictionBatch != 1000 || c.Model.MaxExplanationBatch != 10 {
		t.Fatalf("model batch caps = %+v", c.Model)
	}
	if !c.RateLimit.Enabled || c.RateLimit.Store != "memory" {
		t.Fatalf("rate limit defaults = %+v", c.RateLimit)
	}
	if c.RateLimit.DefaultPerDay != 200 || c.RateLimit.DefaultPerHour != 50 ||
		c.RateLimit.PredictPerHour != 100 || c.RateLimit.ExplainPerHour != 50 {
		t.Fatalf("rate limit budgets = %+v", c.RateLimit)
	}
	if c.Audit.Backend != "none" || c.Audit.BufferSize != 256 {
		t.Fatalf("audit defaults = %+v", c.Audit)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing model path", `{}`},
		{"bad environment", minimalYAML + "environment: staging\n"},
		{"bad port", minimalYAML + "server:\n  port: -1\n"},
		{"bad store", minimalYAML + "rate_limit:\n  store: memcached\n"},
		{"bad audit backend", minimalYAML + "audit:\n  backend: s3\n"},
	}
	for _, tc := range cases {
		if _, err := Parse([]byte(tc.yaml)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestValidateKafkaNeedsBrokers(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	c.Audit.Backend = "kafka"
	err = c.Validate()
	if err == nil || !strings.Contains(err.Error(), "brokers") {
		t.Fatalf("expected broker validation error, got %v", err)
	}

	c.Audit.Kafka.Brokers = []string{"localhost:9092"}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("MODEL_PATH", "/opt/models/current.json")
	t.Setenv("MAX_PREDICTION_BATCH_SIZE", "500")
	t.Setenv("RATE_LIMIT_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("AUDIT_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "production" {
		t.Fatalf("environment = %q", c.Environment)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if c.Logging.Level != "debug" {
		t.Fatalf("level = %q", c.Logging.Level)
	}
	if c.Model.Path != "/opt/models/current.json" || c.Model.MaxPredictionBatch != 500 {
		t.Fatalf("model = %+v", c.Model)
	}
	if c.RateLimit.Store != "redis" || c.RateLimit.Redis.Addr != "redis:6379" {
		t.Fatalf("rate limit = %+v", c.RateLimit)
	}
	if c.Audit.Backend != "kafka" || len(c.Audit.Kafka.Brokers) != 2 {
		t.Fatalf("audit = %+v", c.Audit)
	}
}

func TestLoadWithEnvRejectsBadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("API_PORT", "not-a-port")
	if _, err := LoadWithEnv(path); err == nil {
		t.Fatalf("expected error for bad API_PORT")
	}
}

func TestLoadWithEnvRevalidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Kafka backend without brokers must fail even when set via env.
	t.Setenv("AUDIT_BACKEND", "kafka")
	if _, err := LoadWithEnv(path); err == nil {
		t.Fatalf("expected validation error")
	}
}
