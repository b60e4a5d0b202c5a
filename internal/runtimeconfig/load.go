package runtimeconfig

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, expanding environment references before
// decoding it over DefaultConfig. The result is validated.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", filename, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to validated defaults when
// filename is empty or missing.
func LoadOrDefault(filename string) (Config, error) {
	if filename == "" {
		cfg := DefaultConfig()
		return cfg, cfg.Validate()
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		return cfg, cfg.Validate()
	}
	return Load(filename)
}

// Parse decodes YAML bytes over DefaultConfig and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
