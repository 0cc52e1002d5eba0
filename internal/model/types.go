/*
PURPOSE:
  Defines the core data structures for Stratum Runner.
  These records represent single agent invocations and A/B comparisons.

REQUIREMENTS:
  User-specified:
  - Record response text, token counts, latency, model, retry count.
  - Pair a baseline and a DocStratum-variant response per question.

  Implementation-discovered:
  - Derived values (total tokens, overhead, latency diff) must be computed,
    never stored, but duplicated into exported JSON for downstream tooling.
  - JSON must round-trip exactly (reporting tools reload result files).

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public. Immutable after construction by convention.
  - Failure is data: a failed invocation is an AgentResponse with Error set,
    zero tokens and zero latency.

USAGE:
  resp := model.AgentResponse{...}
  resp.TotalTokens()

SELF-HEALING INSTRUCTIONS:
  - If new metrics are needed, add a method in metrics.go and update the
    CSV/JSON writers.

RELATED FILES:
  - internal/model/metrics.go
  - internal/output/store.go

MAINTENANCE:
  - Update MarshalJSON when adding convenience duplicates to the wire format.
*/

package model

import (
	"encoding/json"
	"time"
)

// AgentResponse is one terminal invocation attempt: either the attempt that
// succeeded, or the last attempt after retries were exhausted.
type AgentResponse struct {
	Response         string    `json:"response"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	LatencyMS        float64   `json:"latency_ms"` // wall clock around the full attempt
	Model            string    `json:"model"`
	Timestamp        time.Time `json:"timestamp"`
	Error            string    `json:"error,omitempty"`
	RetryCount       int       `json:"retry_count"`
}

// TotalTokens is derived, never stored.
func (r AgentResponse) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Success reports whether the invocation completed without error.
func (r AgentResponse) Success() bool {
	return r.Error == ""
}

// MarshalJSON duplicates total_tokens into the wire format for consumers
// that don't want to re-add the counts. Unmarshal ignores the duplicate,
// so the stored fields remain the source of truth.
func (r AgentResponse) MarshalJSON() ([]byte, error) {
	type plain AgentResponse
	return json.Marshal(struct {
		plain
		TotalTokens int `json:"total_tokens"`
	}{plain(r), r.TotalTokens()})
}

// ABTestResult is one comparison between a baseline (control) and a
// DocStratum-variant response to the same question.
//
// The Control/Variant labeling is stable regardless of the order the two
// calls were actually issued in.
type ABTestResult struct {
	Question      string            `json:"question"`
	Control       AgentResponse     `json:"baseline"`
	Variant       AgentResponse     `json:"variant"`
	ContextTokens int               `json:"context_tokens"`
	Timestamp     time.Time         `json:"timestamp"`
	SessionID     string            `json:"session_id"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON duplicates the most commonly consumed derived metrics into
// the wire format. See AgentResponse.MarshalJSON for the rationale.
func (t ABTestResult) MarshalJSON() ([]byte, error) {
	type plain ABTestResult
	return json.Marshal(struct {
		plain
		TokenOverhead int     `json:"token_overhead"`
		LatencyDiffMS float64 `json:"latency_diff_ms"`
	}{plain(t), t.TokenOverhead(), t.LatencyDiffMS()})
}
