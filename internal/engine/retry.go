/*
PURPOSE:
  Retry policy: pure configuration plus the backoff-delay function.

REQUIREMENTS:
  User-specified:
  - Max attempts (default 3), initial delay, exponential multiplier,
    per-attempt timeout.
  - Delay for attempt index n (0-based) = initial × multiplier^n, applied
    before the NEXT retry, never before the first attempt.

  Implementation-discovered:
  - Only transient errors consult the policy; permanent errors are
    terminal on first occurrence (handled in the engine loop).

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine/engine.go
  - Built from: internal/config

ERROR HANDLING:
  - None (pure functions).

IMPLEMENTATION RULES:
  - Keep Delay deterministic; jitter would break the documented schedule.

USAGE:
  p := engine.PolicyFromConfig(cfg)
  d := p.Delay(0) // first backoff wait

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/engine.go

MAINTENANCE:
  - None.
*/

package engine

import (
	"math"
	"time"

	"github.com/docstratum/stratum-runner/internal/config"
)

// RetryPolicy controls the retry loop around one invocation.
type RetryPolicy struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy mirrors the config defaults.
func DefaultRetryPolicy() RetryPolicy {
	return PolicyFromConfig(config.DefaultConfig())
}

// PolicyFromConfig builds the policy from the loaded configuration.
func PolicyFromConfig(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialDelay:   cfg.InitialDelay(),
		Multiplier:     cfg.BackoffMultiplier,
		AttemptTimeout: cfg.AttemptTimeout(),
	}
}

// Delay returns the backoff wait after attempt index n (0-based) fails.
// With initial=100ms and multiplier=2: Delay(0)=100ms, Delay(1)=200ms.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt)))
}
