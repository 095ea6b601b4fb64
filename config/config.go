// Package config loads DbgMesh configuration from YAML files: which engine to
// drive, where its dump file and symbols live, and how to log. These values
// are consumed by the engine adapters, not by the scheduler core.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Engine selection values.
const (
	EngineScripted = "scripted"
	EnginePipe     = "pipe"
)

// PipeConfig configures the process-backed engine adapter.
type PipeConfig struct {
	// Binary is the debugger executable.
	Binary string `yaml:"binary"`
	// Args are extra arguments passed to the binary.
	Args []string `yaml:"args,omitempty"`
	// Prompt overrides the prompt regular expression.
	Prompt string `yaml:"prompt,omitempty"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is json or text.
	Format string `yaml:"format"`
}

// Config is the root configuration document.
type Config struct {
	// Engine selects the adapter: scripted or pipe.
	Engine string `yaml:"engine"`
	// Pipe configures the pipe adapter; required when Engine is pipe.
	Pipe PipeConfig `yaml:"pipe,omitempty"`
	// Dump is the dump file opened by the engine at startup.
	Dump string `yaml:"dump,omitempty"`
	// Symbols is the symbol search path handed to the engine.
	Symbols string `yaml:"symbols,omitempty"`
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// Default returns the baseline configuration: scripted engine, info-level
// JSON logging.
func Default() *Config {
	return &Config{
		Engine: EngineScripted,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads and validates a YAML configuration file. Missing fields keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineScripted:
	case EnginePipe:
		if c.Pipe.Binary == "" {
			return fmt.Errorf("engine %q requires pipe.binary", c.Engine)
		}
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}

	return nil
}
