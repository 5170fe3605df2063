// Package config loads fetch client configuration from layered sources:
// built-in defaults, an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/rmja/fetch-client/retry"
)

// envPrefix namespaces the environment variables read by Load, e.g.
// FETCH_RETRY_MAXRETRIES=3.
const envPrefix = "FETCH_"

// Config is the root configuration for a fetch client.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Client ClientConfig `koanf:"client"`
	Retry  RetryConfig  `koanf:"retry"`
}

// LogConfig configures the client logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal disabled"`
	Pretty bool   `koanf:"pretty"`
}

// ClientConfig configures the interceptor pipeline.
type ClientConfig struct {
	// Headers are default headers applied to every request.
	Headers map[string]string `koanf:"headers"`
	// ResponseOrder selects the response-phase iteration order.
	ResponseOrder string `koanf:"responseorder" validate:"omitempty,oneof=reverse forward"`
	// Rate throttles outbound requests when Limit > 0.
	Rate RateConfig `koanf:"rate"`
}

// RateConfig configures the rate-limiting interceptor.
type RateConfig struct {
	Limit float64 `koanf:"limit" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// RetryConfig configures the retry policy by name; Policy converts it into
// the engine's representation.
type RetryConfig struct {
	MaxRetries        int           `koanf:"maxretries" validate:"gte=0"`
	Interval          time.Duration `koanf:"interval" validate:"gte=0"`
	Strategy          string        `koanf:"strategy" validate:"omitempty,oneof=fixed linear exponential random jittered"`
	MinRandomInterval time.Duration `koanf:"minrandominterval" validate:"gte=0"`
	MaxRandomInterval time.Duration `koanf:"maxrandominterval" validate:"gte=0,gtefield=MinRandomInterval"`
}

// Policy converts the named configuration into a retry.Policy.
func (c *RetryConfig) Policy() (retry.Policy, error) {
	strategy, err := retry.ParseStrategy(c.Strategy)
	if err != nil {
		return retry.Policy{}, err
	}
	return retry.Policy{
		MaxRetries:        c.MaxRetries,
		Interval:          c.Interval,
		Strategy:          strategy,
		MinRandomInterval: c.MinRandomInterval,
		MaxRandomInterval: c.MaxRandomInterval,
	}, nil
}

// Load reads configuration with priority env > yaml file > defaults. The
// file is optional; a missing path is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

// LoadBytes reads configuration from raw YAML over the defaults. Used by
// tests and embedded configuration.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	return unmarshal(k)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"log.level":  "info",
		"log.pretty": false,

		"client.responseorder": "reverse",
		"client.rate.limit":    0,
		"client.rate.burst":    0,

		"retry.maxretries": 0,
		"retry.interval":   "0s",
		"retry.strategy":   "fixed",
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "_", ".")
			return key, value
		},
	}), nil)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
