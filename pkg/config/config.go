// Package config provides configuration loading for the canvasflow binaries.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/canvasflow/canvasflow/pkg/models"
)

// RunDefaults overrides the built-in generation defaults for every run
// started by this process.
type RunDefaults struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Voice       string  `yaml:"voice"`
}

// Config is the canvasflow.yaml document. Everything is optional; flags and
// environment variables take precedence.
type Config struct {
	DatabaseURL string            `yaml:"database_url"`
	GatewayURL  string            `yaml:"gateway_url"`
	EventBus    string            `yaml:"event_bus"`
	LogLevel    string            `yaml:"log_level"`
	Run         RunDefaults       `yaml:"run"`
	APIKeys     map[string]string `yaml:"api_keys"`
}

// Load reads a YAML config file. A missing path returns the zero config.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// RunConfig builds the run configuration, starting from the built-in
// defaults and applying the file's overrides and API keys.
func (c Config) RunConfig() models.RunConfig {
	cfg := models.DefaultRunConfig()

	if c.Run.Provider != "" {
		cfg.Provider = c.Run.Provider
	}

	if c.Run.Model != "" {
		cfg.Model = c.Run.Model
	}

	if c.Run.Temperature > 0 {
		cfg.Temperature = c.Run.Temperature
	}

	if c.Run.MaxTokens > 0 {
		cfg.MaxTokens = c.Run.MaxTokens
	}

	if c.Run.Voice != "" {
		cfg.Voice = c.Run.Voice
	}

	if len(c.APIKeys) > 0 {
		cfg.APIKeys = c.APIKeys
	}

	return cfg
}
