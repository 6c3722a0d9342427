package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the roombus service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"roombus"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"ROOMBUS_PORT" envDefault:"8186"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Service-key bearer auth guarding /api-keys administration
	ServiceKey string `env:"SERVICE_KEY"`

	// Postgres DSN for the credential store
	DatabaseDSN string `env:"DATABASE_DSN"`

	// CredentialKeyEnv selects the issued key class: "live" or "test".
	CredentialKeyEnv string `env:"CREDENTIAL_KEY_ENV" envDefault:"live"`

	// KVBackend selects the Room's durable KV store: "redis" or "memory".
	// "memory" is for local development only — log buckets and usage
	// counters do not survive a restart.
	KVBackend string `env:"KV_BACKEND" envDefault:"redis"`

	// Redis address for the durable KV store (log buckets, usage counters)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Projects that skip API key validation entirely
	KeyBypassProjects []string `env:"KEY_BYPASS_PROJECTS" envSeparator:"," envDefault:"demo,demo-prod"`

	// Room behaviour
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	IdleAlarmDelay    time.Duration `env:"IDLE_ALARM_DELAY" envDefault:"5m"`
	LogRetentionHours int           `env:"LOG_RETENTION_HOURS" envDefault:"24"`
	MaxLogsPerHour    int           `env:"MAX_LOGS_PER_HOUR" envDefault:"1000"`
	AdminReplayLimit  int           `env:"ADMIN_REPLAY_LIMIT" envDefault:"500"`
	FixturesEnabled   bool          `env:"FIXTURES_ENABLED" envDefault:"true"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if cfg.Environment == "production" && strings.TrimSpace(cfg.ServiceKey) == "" {
		return nil, fmt.Errorf("SERVICE_KEY is required in production")
	}

	return cfg, nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsBypassProject reports whether projectId skips API key validation.
func (c *Config) IsBypassProject(projectID string) bool {
	for _, p := range c.KeyBypassProjects {
		if p == projectID {
			return true
		}
	}
	return false
}
