package config

import (
	"time"

	redisclient "github.com/vietddude/crmbridge/internal/infra/redis"
	"github.com/vietddude/crmbridge/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Attio    AttioConfig        `yaml:"attio"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
	Audit    AuditConfig        `yaml:"audit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       int `yaml:"port"`        // tool server
	HealthPort int `yaml:"health_port"` // health + metrics server
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// AttioConfig holds settings for the CRM endpoint family.
type AttioConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`

	Retry   RetryConfig   `yaml:"retry"`
	Breaker BreakerConfig `yaml:"breaker"`

	DailyQuota         int `yaml:"daily_quota"` // 0 = unlimited
	BatchMaxConcurrent int `yaml:"batch_max_concurrent"`
}

// RetryConfig holds retry executor settings.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

// AuditConfig holds audit store settings.
type AuditConfig struct {
	RetentionPeriod time.Duration `yaml:"retention_period"` // 0 = infinite
}
