/*
PURPOSE:
  HTTP implementation of AgentInvoker against an Ollama-style API.
  Handles model discovery and single-shot (non-streaming) generation.

REQUIREMENTS:
  User-specified:
  - One invocation = one /api/generate round trip returning text plus
    prompt/completion token counts.
  - Failures must come back tagged transient or permanent.

  Implementation-discovered:
  - Needs http.Client with a tuned transport: ResponseHeaderTimeout covers
    the time until the first response byte, which is where server-side
    model loading happens.
  - Classification: context deadline and connection errors are transient;
    5xx is transient (overload); 4xx, unknown model and malformed JSON are
    permanent.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/engine.go (via AgentInvoker)
  - Uses: internal/config

ERROR HANDLING:
  - Every error path returns *TransientError or *PermanentError; the retry
    decision upstream is a pure function of the tag.

IMPLEMENTATION RULES:
  - Use net/http. Honor the ctx deadline the engine supplies.
  - Non-streaming only: the engine contract is one timed round trip.

USAGE:
  c := engine.NewClient(cfg)
  res, err := c.Invoke(ctx, question, "llama3.1:8b")

SELF-HEALING INSTRUCTIONS:
  - If the server API changes, update the endpoints (/api/tags, /api/generate).

RELATED FILES:
  - internal/engine/invoker.go
  - internal/config/config.go

MAINTENANCE:
  - Update for new server API features.
*/

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/docstratum/stratum-runner/internal/config"
)

// Client talks to an Ollama-compatible server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an HTTP invoker for the configured server.
func NewClient(cfg *config.Config) *Client {
	// Custom transport to differentiate a dead connection from the server
	// hanging during headers (model loading).
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.LoadTimeout()

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		// No client-level timeout: the engine owns the per-attempt
		// deadline through ctx.
		http: &http.Client{Transport: transport},
	}
}

// Models returns the models available on the server. Used by the CLI as a
// connectivity preflight; not part of the invocation path.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var names []string
	for _, m := range payload.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Invoke runs one non-streaming generation round trip. Latency timing
// happens in the engine, wrapped around this whole call.
func (c *Client) Invoke(ctx context.Context, question, modelName string) (InvokeResult, error) {
	payload := map[string]interface{}{
		"model":  modelName,
		"prompt": question,
		"stream": false,
	}
	reqBody, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return InvokeResult{}, &PermanentError{Err: fmt.Errorf("malformed request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Deadline expiry and connection failures are both worth a retry.
		if errors.Is(err, context.DeadlineExceeded) {
			return InvokeResult{}, &TransientError{Err: context.DeadlineExceeded}
		}
		return InvokeResult{}, &TransientError{Err: fmt.Errorf("connection error: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return InvokeResult{}, &TransientError{Err: context.DeadlineExceeded}
		}
		return InvokeResult{}, &TransientError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch {
	case resp.StatusCode >= 500:
		// Server trouble; the next attempt may land on a healthy worker.
		return InvokeResult{}, &TransientError{Err: fmt.Errorf("server error (%s): %s", resp.Status, strings.TrimSpace(string(body)))}
	case resp.StatusCode >= 400:
		// Bad model name or malformed request. No retry can fix this.
		return InvokeResult{}, &PermanentError{Err: fmt.Errorf("request rejected (%s): %s", resp.Status, strings.TrimSpace(string(body)))}
	}

	var data struct {
		Response        string `json:"response"`
		Done            bool   `json:"done"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
		Error           string `json:"error"` // API-side error
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return InvokeResult{}, &PermanentError{Err: fmt.Errorf("server returned invalid JSON: %w", err)}
	}
	if data.Error != "" {
		return InvokeResult{}, &PermanentError{Err: fmt.Errorf("API error: %s", data.Error)}
	}

	return InvokeResult{
		Response:         data.Response,
		PromptTokens:     data.PromptEvalCount,
		CompletionTokens: data.EvalCount,
	}, nil
}
