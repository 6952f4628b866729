// SPDX-License-Identifier: MIT
// Package config holds the runtime configuration for the visualization
// engine: quality tier, source settings, and transport endpoints.
// Values come from built-in defaults, an optional YAML file, environment
// overrides, and CLI flags, in that order.
package config

import (
	"fmt"
	"time"

	"vizcore/internal/quality"
)

// Defaults and limits for the engine configuration.
const (
	DefaultLogLevel      = "info"
	DefaultQuality       = "medium"
	DefaultWindowSize    = 1024                  // Samples per analysis window.
	DefaultSampleRate    = 44100                 // Hz, used by the synthetic source.
	DefaultFrameInterval = 16 * time.Millisecond // ~60 source frames per second.

	DefaultWebSocketPort   = "8080"
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultUDPSendInterval = 16 * time.Millisecond

	MinSampleRate = 8000
	MaxSampleRate = 192000
	MaxWindowSize = 16384
	MaxBarCount   = 4096
)

// Config is the root configuration structure, loadable from YAML.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Command  string `yaml:"-"` // One-off command from the CLI, never persisted.

	Engine    EngineConfig    `yaml:"engine"`
	Source    SourceConfig    `yaml:"source"`
	Transport TransportConfig `yaml:"transport"`
}

// EngineConfig parameterizes the spectrum pipeline and particle ring.
type EngineConfig struct {
	Quality          string `yaml:"quality"`           // Tier name: low, medium, high.
	BarCount         int    `yaml:"bar_count"`         // 0 uses the tier's default.
	ParticleCapacity int    `yaml:"particle_capacity"` // 0 uses the tier's default.
}

// SourceConfig selects and parameterizes the magnitude source.
type SourceConfig struct {
	InputFile     string        `yaml:"input_file"` // WAV path; empty selects the synthetic source.
	SampleRate    float64       `yaml:"sample_rate"`
	WindowSize    int           `yaml:"window_size"`
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// TransportConfig controls the outbound frame feeds.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketPort    string        `yaml:"websocket_port"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Engine: EngineConfig{
			Quality: DefaultQuality,
		},
		Source: SourceConfig{
			SampleRate:    DefaultSampleRate,
			WindowSize:    DefaultWindowSize,
			FrameInterval: DefaultFrameInterval,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketPort:    DefaultWebSocketPort,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
	}
}

// Profile resolves the quality tier plus any explicit overrides into
// the profile handed to the pipeline.
func (c *Config) Profile() quality.Profile {
	tier, _ := quality.ParseTier(c.Engine.Quality)
	p := quality.ForTier(tier)
	if c.Engine.BarCount > 0 {
		p.BarCount = c.Engine.BarCount
	}
	if c.Engine.ParticleCapacity > 0 {
		p.ParticleCapacity = c.Engine.ParticleCapacity
	}
	return p
}

// Validate rejects misconfiguration up front; the engine never checks
// these at runtime.
func (c *Config) Validate() error {
	if _, ok := quality.ParseTier(c.Engine.Quality); !ok {
		return fmt.Errorf("config: unknown quality tier %q", c.Engine.Quality)
	}
	if c.Engine.BarCount < 0 || c.Engine.BarCount > MaxBarCount {
		return fmt.Errorf("config: bar count %d outside [0, %d]", c.Engine.BarCount, MaxBarCount)
	}
	if c.Engine.ParticleCapacity < 0 {
		return fmt.Errorf("config: particle capacity must not be negative, got %d", c.Engine.ParticleCapacity)
	}
	if c.Source.WindowSize <= 0 || c.Source.WindowSize > MaxWindowSize {
		return fmt.Errorf("config: window size %d outside (0, %d]", c.Source.WindowSize, MaxWindowSize)
	}
	if c.Source.SampleRate < MinSampleRate || c.Source.SampleRate > MaxSampleRate {
		return fmt.Errorf("config: sample rate %v outside [%d, %d]", c.Source.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Source.FrameInterval <= 0 {
		return fmt.Errorf("config: frame interval must be positive, got %s", c.Source.FrameInterval)
	}
	if c.Transport.WebSocketEnabled && c.Transport.WebSocketPort == "" {
		return fmt.Errorf("config: websocket transport enabled without a port")
	}
	if c.Transport.UDPEnabled && c.Transport.UDPTargetAddress == "" {
		return fmt.Errorf("config: udp transport enabled without a target address")
	}
	return nil
}
