/*
PURPOSE:
  TestSession groups an ordered batch of ABTestResult under one identifier
  with run-level metadata.

REQUIREMENTS:
  User-specified:
  - Session id, start/end times, model identifiers, context source,
    environment metadata, free-text notes, ordered results.

  Implementation-discovered:
  - Under parallel batch execution results arrive in completion order, not
    submission order. Session order IS completion order — accepted
    non-determinism, not a bug.
  - The session performs no I/O itself; the runner appends and the store
    persists.

ARCHITECTURE INTEGRATION:
  - Appended to by: internal/engine/runner.go
  - Persisted by: internal/output/store.go

ERROR HANDLING:
  - None. SuccessRate is 0.0 for an empty session (no divide-by-zero).

IMPLEMENTATION RULES:
  - Plain aggregate. Not internally locked — concurrent appends are the
    caller's responsibility to serialize.

USAGE:
  sess := model.NewSession("run-42", "llama3.1:8b", "llama3.1:8b")
  sess.Append(result)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/runner.go
  - internal/output/store.go

MAINTENANCE:
  - Update the environment map keys alongside the runner.
*/

package model

import "time"

// TestSession is an ordered collection of comparison results sharing run
// metadata. Results are appended in completion order.
type TestSession struct {
	SessionID     string            `json:"session_id"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	ControlModel  string            `json:"control_model"`
	VariantModel  string            `json:"variant_model"`
	ContextSource string            `json:"context_source,omitempty"`
	Environment   map[string]string `json:"environment,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Results       []ABTestResult    `json:"results"`
}

// NewSession creates an open session starting now.
func NewSession(id, controlModel, variantModel string) *TestSession {
	return &TestSession{
		SessionID:    id,
		StartTime:    time.Now().UTC(),
		ControlModel: controlModel,
		VariantModel: variantModel,
		Results:      []ABTestResult{},
	}
}

// Append adds a result in completion order. Not safe for concurrent use.
func (s *TestSession) Append(r ABTestResult) {
	s.Results = append(s.Results, r)
}

// Close marks the session finished at the given time.
func (s *TestSession) Close(end time.Time) {
	s.EndTime = &end
}

// Duration is the session wall-clock span. For a still-open session the
// span runs up to now.
func (s *TestSession) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// TestCount is the number of recorded comparisons.
func (s *TestSession) TestCount() int {
	return len(s.Results)
}

// SuccessRate is the fraction of results where both sides completed.
// An empty session reports 0.0.
func (s *TestSession) SuccessRate() float64 {
	if len(s.Results) == 0 {
		return 0.0
	}
	ok := 0
	for _, r := range s.Results {
		if r.BothSuccessful() {
			ok++
		}
	}
	return float64(ok) / float64(len(s.Results))
}
