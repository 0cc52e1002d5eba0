/*
PURPOSE:
  Defines the configuration structure and loading logic for Stratum Runner.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Configure target URL, model pair, question list, retry policy, settle
    delay, execution mode and output directory.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Delay/timeout knobs are millisecond integers so YAML stays plain
    (and so they line up with the invoker's timeoutMs contract).

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine
  - Dependencies: gopkg.in/yaml.v3 (standard for Go config)

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - "No file found" falls back to defaults without error.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (3 attempts, 100ms settle, 60s timeout).

USAGE:
  cfg, err := config.Load("stratum_runner.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update Load() defaults.

RELATED FILES:
  - internal/cli/run.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Execution modes for the control/variant pair within one test.
const (
	ModeSequential = "sequential"
	ModeConcurrent = "concurrent"
)

// Config represents the full configuration for Stratum Runner.
type Config struct {
	URL          string `yaml:"url"`
	ControlModel string `yaml:"control_model"`
	VariantModel string `yaml:"variant_model"`

	// Questions asked of both models, one comparison each.
	Questions []string `yaml:"questions"`

	// ContextSource identifies the llms.txt (or similar) context supplied
	// to the variant; ContextTokens is its fixed token count, recorded per
	// session for overhead accounting.
	ContextSource string `yaml:"context_source"`
	ContextTokens int    `yaml:"context_tokens"`

	OutputDir string `yaml:"output_dir"`
	SessionID string `yaml:"session_id"` // generated when empty
	Notes     string `yaml:"notes"`

	// Mode is "sequential" or "concurrent" (per test, control vs variant).
	Mode string `yaml:"mode"`
	// RandomizeOrder shuffles the control/variant call order per question
	// in sequential mode to cancel first-call bias across a batch.
	RandomizeOrder bool `yaml:"randomize_order"`
	// SettleDelayMS is the pause between the two sequential calls. A
	// heuristic against provider-side caching bias; tunable, not assumed
	// to fully eliminate ordering effects.
	SettleDelayMS int `yaml:"settle_delay_ms"`
	// Parallel is how many questions run at once (1 = one at a time).
	Parallel int `yaml:"parallel"`

	// Retry policy.
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMS    int     `yaml:"initial_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	AttemptTimeoutMS  int     `yaml:"attempt_timeout_ms"`

	// LoadTimeoutMS bounds the wait for first response headers (covers
	// server-side model loading), mirrored into the HTTP transport.
	LoadTimeoutMS int `yaml:"load_timeout_ms"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		URL:               "http://localhost:11434",
		ControlModel:      "llama3.1:8b",
		VariantModel:      "llama3.1:8b",
		Questions:         []string{"What is a REST API?"},
		OutputDir:         "results",
		Mode:              ModeSequential,
		SettleDelayMS:     100,
		Parallel:          1,
		MaxAttempts:       3,
		InitialDelayMS:    500,
		BackoffMultiplier: 2.0,
		AttemptTimeoutMS:  60_000,
		LoadTimeoutMS:     120_000,
	}
}

// SettleDelay returns the settle delay as a duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// InitialDelay returns the first backoff delay as a duration.
func (c *Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMS) * time.Millisecond
}

// AttemptTimeout returns the per-attempt timeout as a duration.
func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutMS) * time.Millisecond
}

// LoadTimeout returns the response-header timeout as a duration.
func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.LoadTimeoutMS) * time.Millisecond
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BackoffMultiplier <= 0 {
		return fmt.Errorf("backoff_multiplier must be positive, got %g", c.BackoffMultiplier)
	}
	if c.Mode != ModeSequential && c.Mode != ModeConcurrent {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeSequential, ModeConcurrent, c.Mode)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	return nil
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		// Search for defaults
		defaults := []string{"stratum_runner.yaml", "runner.yaml"}
		found := false
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name // record which file we loaded
				found = true
				break
			}
		}
		if !found {
			// No config file found, return default
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
