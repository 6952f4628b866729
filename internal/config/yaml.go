// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load builds a Config from the YAML file at path. An empty path falls
// back to "config.yaml" in the working directory, and to pure defaults
// when no file exists. Environment overrides apply after the file, and
// the result is validated before being returned.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		} else {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments tweak settings without
// editing the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VIZCORE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("VIZCORE_QUALITY"); v != "" {
		c.Engine.Quality = v
	}
	if v := os.Getenv("VIZCORE_WS_PORT"); v != "" {
		c.Transport.WebSocketPort = v
	}
	if v := os.Getenv("VIZCORE_UDP_TARGET"); v != "" {
		c.Transport.UDPTargetAddress = v
	}
}
