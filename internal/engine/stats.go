/*
PURPOSE:
  Thread-safe execution counters: attempts, successes, failures by error
  type, timeouts, retries, and a succeeded-after-N-retries histogram.

REQUIREMENTS:
  User-specified:
  - Increments from concurrent invocations must not race.
  - SuccessRate() = successes / (successes + failures), 0.0 before any
    terminal invocation.

  Implementation-discovered:
  - Scalar counters are atomics; the two maps share one mutex. This is the
    only in-memory state shared across concurrent attempts.

ARCHITECTURE INTEGRATION:
  - Incremented by: internal/engine/engine.go
  - Read by: internal/engine/runner.go (end-of-run summary log)

ERROR HANDLING:
  - None.

IMPLEMENTATION RULES:
  - Snapshot() copies the maps so callers can't race the writers.

USAGE:
  stats := engine.NewStats()
  stats.RecordSuccess(1)
  rate := stats.SuccessRate()

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/engine.go

MAINTENANCE:
  - Keep Snapshot fields in sync with the counters.
*/

package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Stats tracks invocation outcomes across a run. Safe for concurrent use.
type Stats struct {
	attempts  atomic.Int64 // attempts started, including retries
	successes atomic.Int64 // terminal successes
	failures  atomic.Int64 // terminal failures
	retries   atomic.Int64 // backoff waits taken
	timeouts  atomic.Int64 // attempts ended by deadline expiry

	mu             sync.Mutex
	failuresByType map[string]int64
	retryHistogram map[int]int64 // retries consumed -> successes
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{
		failuresByType: make(map[string]int64),
		retryHistogram: make(map[int]int64),
	}
}

// RecordAttempt counts one attempt starting.
func (s *Stats) RecordAttempt() {
	s.attempts.Add(1)
}

// RecordRetry counts one backoff wait before a re-attempt.
func (s *Stats) RecordRetry() {
	s.retries.Add(1)
}

// RecordTimeout counts one attempt ended by its deadline.
func (s *Stats) RecordTimeout() {
	s.timeouts.Add(1)
}

// RecordSuccess counts a terminal success that consumed the given number
// of retries (0 when the first attempt succeeded).
func (s *Stats) RecordSuccess(retries int) {
	s.successes.Add(1)
	s.mu.Lock()
	s.retryHistogram[retries]++
	s.mu.Unlock()
}

// RecordFailure counts a terminal failure, keyed by the underlying error
// type name.
func (s *Stats) RecordFailure(err error) {
	s.failures.Add(1)
	s.mu.Lock()
	s.failuresByType[errorTypeName(err)]++
	s.mu.Unlock()
}

// SuccessRate is successes over terminal invocations; 0.0 when none yet.
func (s *Stats) SuccessRate() float64 {
	succ := s.successes.Load()
	total := succ + s.failures.Load()
	if total == 0 {
		return 0.0
	}
	return float64(succ) / float64(total)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Attempts       int64
	Successes      int64
	Failures       int64
	Retries        int64
	Timeouts       int64
	FailuresByType map[string]int64
	RetryHistogram map[int]int64
}

// Snapshot copies the counters for logging or inspection.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	byType := make(map[string]int64, len(s.failuresByType))
	for k, v := range s.failuresByType {
		byType[k] = v
	}
	hist := make(map[int]int64, len(s.retryHistogram))
	for k, v := range s.retryHistogram {
		hist[k] = v
	}
	s.mu.Unlock()

	return Snapshot{
		Attempts:       s.attempts.Load(),
		Successes:      s.successes.Load(),
		Failures:       s.failures.Load(),
		Retries:        s.retries.Load(),
		Timeouts:       s.timeouts.Load(),
		FailuresByType: byType,
		RetryHistogram: hist,
	}
}

// errorTypeName unwraps the transient/permanent tag and names the
// underlying error's type.
func errorTypeName(err error) string {
	var te *TransientError
	if errors.As(err, &te) && te.Err != nil {
		return fmt.Sprintf("%T", te.Err)
	}
	var pe *PermanentError
	if errors.As(err, &pe) && pe.Err != nil {
		return fmt.Sprintf("%T", pe.Err)
	}
	return fmt.Sprintf("%T", err)
}
