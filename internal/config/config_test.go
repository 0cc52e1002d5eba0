package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434", cfg.URL)
	assert.Equal(t, ModeSequential, cfg.Mode)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2.0, cfg.BackoffMultiplier)
	assert.Equal(t, 100*time.Millisecond, cfg.SettleDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.InitialDelay())
	assert.Equal(t, 60*time.Second, cfg.AttemptTimeout())
	assert.Equal(t, 1, cfg.Parallel)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	yaml := `
url: http://ollama-1:11434
control_model: llama3.1:8b
variant_model: qwen2.5:7b
context_source: docs/llms.txt
context_tokens: 4500
mode: concurrent
settle_delay_ms: 250
max_attempts: 5
initial_delay_ms: 100
backoff_multiplier: 1.5
questions:
  - What is a REST API?
  - How do I authenticate?
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://ollama-1:11434", cfg.URL)
	assert.Equal(t, "qwen2.5:7b", cfg.VariantModel)
	assert.Equal(t, 4500, cfg.ContextTokens)
	assert.Equal(t, ModeConcurrent, cfg.Mode)
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay())
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 1.5, cfg.BackoffMultiplier)
	assert.Len(t, cfg.Questions, 2)

	// Unset knobs keep their defaults.
	assert.Equal(t, 60*time.Second, cfg.AttemptTimeout())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, "max_attempts"},
		{"negative multiplier", func(c *Config) { c.BackoffMultiplier = -1 }, "backoff_multiplier"},
		{"bad mode", func(c *Config) { c.Mode = "sideways" }, "mode"},
		{"zero parallel", func(c *Config) { c.Parallel = 0 }, "parallel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
