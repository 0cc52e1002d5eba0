/*
PURPOSE:
  Derived comparison metrics for ABTestResult.
  Computed on read from the stored fields — never cached, never persisted
  as source of truth.

REQUIREMENTS:
  User-specified:
  - Token overhead (absolute and percent), latency diff (absolute and
    improvement percent), response-length ratio, combined success flag.

  Implementation-discovered:
  - Every ratio needs an explicit zero-denominator convention so consumers
    never see NaN or Inf in exports.

ARCHITECTURE INTEGRATION:
  - Used by: internal/output (CSV/JSON export), reporting tooling.

ERROR HANDLING:
  - None. Zero denominators return the documented fallback values.

IMPLEMENTATION RULES:
  - Swapping Control and Variant must negate TokenOverhead and LatencyDiffMS.
  - Downstream consumers must check Success per side before aggregating;
    these helpers do not filter failed sides.

USAGE:
  overhead := result.TokenOverhead()

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Keep fallback conventions in sync with the CSV writer docs.
*/

package model

// TokenOverhead is the extra tokens the variant consumed over the control.
// Negative when the variant was cheaper.
func (t ABTestResult) TokenOverhead() int {
	return t.Variant.TotalTokens() - t.Control.TotalTokens()
}

// TokenOverheadPercent is TokenOverhead relative to the control total.
// Returns 0 when the control consumed no tokens.
func (t ABTestResult) TokenOverheadPercent() float64 {
	ct := t.Control.TotalTokens()
	if ct == 0 {
		return 0
	}
	return float64(t.TokenOverhead()) / float64(ct) * 100.0
}

// LatencyDiffMS is variant latency minus control latency.
// Negative when the variant was faster.
func (t ABTestResult) LatencyDiffMS() float64 {
	return t.Variant.LatencyMS - t.Control.LatencyMS
}

// LatencyImprovementPercent is how much faster the variant was, relative to
// the control. Positive means the variant improved on the control.
// Returns 0 when the control latency is 0.
func (t ABTestResult) LatencyImprovementPercent() float64 {
	if t.Control.LatencyMS == 0 {
		return 0
	}
	return (t.Control.LatencyMS - t.Variant.LatencyMS) / t.Control.LatencyMS * 100.0
}

// ResponseLengthRatio is len(variant response) / len(control response),
// defined as 1.0 when the control response is empty.
func (t ABTestResult) ResponseLengthRatio() float64 {
	cl := len(t.Control.Response)
	if cl == 0 {
		return 1.0
	}
	return float64(len(t.Variant.Response)) / float64(cl)
}

// BothSuccessful reports whether both sides of the comparison completed.
// Results where this is false must be excluded from numeric aggregation.
func (t ABTestResult) BothSuccessful() bool {
	return t.Control.Success() && t.Variant.Success()
}
