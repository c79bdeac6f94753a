package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultAttioBaseURL is the production Attio API endpoint.
const DefaultAttioBaseURL = "https://api.attio.com"

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.Attio.APIKey == "" {
		return nil, fmt.Errorf("attio.api_key is required")
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.HealthPort == 0 {
		cfg.Server.HealthPort = 9090
	}

	if cfg.Attio.BaseURL == "" {
		cfg.Attio.BaseURL = DefaultAttioBaseURL
	}
	if cfg.Attio.Timeout == 0 {
		cfg.Attio.Timeout = 30 * time.Second
	}
	if cfg.Attio.Retry.MaxRetries == 0 {
		cfg.Attio.Retry.MaxRetries = 3
	}
	if cfg.Attio.Retry.BaseDelay == 0 {
		cfg.Attio.Retry.BaseDelay = 500 * time.Millisecond
	}
	if cfg.Attio.Retry.MaxDelay == 0 {
		cfg.Attio.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Attio.Breaker.FailureThreshold == 0 {
		cfg.Attio.Breaker.FailureThreshold = 5
	}
	if cfg.Attio.Breaker.ResetTimeout == 0 {
		cfg.Attio.Breaker.ResetTimeout = time.Minute
	}
}
