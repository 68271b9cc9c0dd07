package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"qsmath/pkg/plugin"
)

var validBuiltins = []string{
	"math",
}

var validClipboardBackends = []string{
	"system",
	"memory",
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a Redis address was configured. The result cache
// is skipped without one.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type PluginConfig struct {
	Path   string `yaml:"path"`
	Symbol string `yaml:"symbol"`
}

type Config struct {
	Plugins    []PluginConfig `yaml:"plugins"`
	Builtins   []string       `yaml:"builtins"`
	Redis      RedisConfig    `yaml:"redis"`
	CacheTTL   int            `yaml:"cache_ttl"`
	Clipboard  string         `yaml:"clipboard"`
	HealthPort int            `yaml:"health_port"`
}

// Load reads a YAML (or JSON) configuration file, validates it and fills
// in defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	setDefaults(&config)

	return &config, nil
}

// Default is the configuration used when no file is given: the builtin
// Math plugin on the system clipboard, no cache.
func Default() *Config {
	config := &Config{Builtins: []string{"math"}}
	setDefaults(config)
	return config
}

func validateConfig(config *Config) error {
	if len(config.Plugins) == 0 && len(config.Builtins) == 0 {
		return fmt.Errorf("at least one plugin or builtin must be specified")
	}

	for i, p := range config.Plugins {
		if p.Path == "" {
			return fmt.Errorf("plugins[%d]: path is required", i)
		}
	}

	for i, name := range config.Builtins {
		if !slices.Contains(validBuiltins, name) {
			return fmt.Errorf("builtins[%d]: unknown builtin '%s', must be one of: %s",
				i, name, strings.Join(validBuiltins, ", "))
		}
	}

	if config.Clipboard != "" && !slices.Contains(validClipboardBackends, config.Clipboard) {
		return fmt.Errorf("clipboard: invalid backend '%s', must be one of: %s",
			config.Clipboard, strings.Join(validClipboardBackends, ", "))
	}

	if config.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}

	return nil
}

func setDefaults(config *Config) {
	for i := range config.Plugins {
		if config.Plugins[i].Symbol == "" {
			config.Plugins[i].Symbol = plugin.Symbol
		}
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 3600
	}
	if config.Clipboard == "" {
		config.Clipboard = "system"
	}
	if config.HealthPort == 0 {
		config.HealthPort = 8081
	}
}

// CacheTTLDuration returns the result cache TTL.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}
