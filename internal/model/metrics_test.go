package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func comparison() ABTestResult {
	return ABTestResult{
		Question: "What is a REST API?",
		Control: AgentResponse{
			Response:         strings.Repeat("x", 150),
			PromptTokens:     100,
			CompletionTokens: 50,
			LatencyMS:        100,
		},
		Variant: AgentResponse{
			Response:         strings.Repeat("y", 450),
			PromptTokens:     300,
			CompletionTokens: 150,
			LatencyMS:        230,
		},
	}
}

func TestTokenOverhead(t *testing.T) {
	r := comparison()
	assert.Equal(t, 300, r.TokenOverhead())
	assert.InDelta(t, 200.0, r.TokenOverheadPercent(), 1e-9)
}

func TestTokenOverheadPercentZeroControl(t *testing.T) {
	r := ABTestResult{Variant: AgentResponse{PromptTokens: 10}}
	assert.Equal(t, 0.0, r.TokenOverheadPercent())
}

func TestLatencyMetrics(t *testing.T) {
	r := comparison()
	assert.InDelta(t, 130.0, r.LatencyDiffMS(), 1e-9)
	assert.InDelta(t, -130.0, r.LatencyImprovementPercent(), 1e-9)
}

func TestLatencyImprovementZeroControl(t *testing.T) {
	r := ABTestResult{Variant: AgentResponse{LatencyMS: 50}}
	assert.Equal(t, 0.0, r.LatencyImprovementPercent())
}

func TestResponseLengthRatio(t *testing.T) {
	// Control 150 chars, variant 450 chars.
	assert.InDelta(t, 3.0, comparison().ResponseLengthRatio(), 1e-9)

	// Empty control response is defined as ratio 1.0.
	empty := ABTestResult{Variant: AgentResponse{Response: "anything"}}
	assert.Equal(t, 1.0, empty.ResponseLengthRatio())
}

func TestSwappingSidesNegatesDiffs(t *testing.T) {
	r := comparison()
	swapped := r
	swapped.Control, swapped.Variant = r.Variant, r.Control

	assert.Equal(t, -r.TokenOverhead(), swapped.TokenOverhead())
	assert.InDelta(t, -r.LatencyDiffMS(), swapped.LatencyDiffMS(), 1e-9)
}

func TestBothSuccessful(t *testing.T) {
	tests := []struct {
		name    string
		control string
		variant string
		want    bool
	}{
		{"both ok", "", "", true},
		{"control failed", "timeout", "", false},
		{"variant failed", "", "timeout", false},
		{"both failed", "timeout", "refused", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ABTestResult{
				Control: AgentResponse{Error: tt.control},
				Variant: AgentResponse{Error: tt.variant},
			}
			assert.Equal(t, tt.want, r.BothSuccessful())
		})
	}
}
