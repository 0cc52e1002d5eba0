/*
PURPOSE:
  The test execution engine: timed, retried invocations of the control and
  variant models, assembled into one persisted comparison per question.

REQUIREMENTS:
  User-specified:
  - InvokeWithRetry never fails past its own boundary — all failure is
    captured in the returned AgentResponse.
  - Sequential mode waits a settle delay between the two calls; concurrent
    mode issues both in parallel and joins.
  - RandomizeOrder shuffles the call order per question but the result
    always labels fields as control/variant.
  - Persistence completes (or fails loudly) before RunTest returns.

  Implementation-discovered:
  - Latency is wall clock around the full attempt (monotonic via
    time.Since), measured per attempt independently.
  - The backoff sleep must honor ctx so a cancelled run doesn't hang.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go, internal/cli
  - Uses: internal/config, internal/model, internal/output

ERROR HANDLING:
  - Attempt state machine: ATTEMPTING -> success | timeout | permanent.
    Timeout/transient with attempts left -> backoff wait -> re-attempt;
    otherwise final failure. Permanent is terminal on first occurrence.
  - RunTest's only error is a persistence failure.

IMPLEMENTATION RULES:
  - Per-attempt timeout via context deadline, not exception-style abort.
  - No engine-imposed ceiling on total test duration; callers needing an
    overall deadline pass a bounded ctx.

USAGE:
  eng := engine.New(cfg, invoker, store)
  res, err := eng.RunTest(ctx, "What is a REST API?", sessionID, cfg.Mode, cfg.RandomizeOrder)

SELF-HEALING INSTRUCTIONS:
  - If retries misbehave, check the Delay indexing: the wait after attempt
    n uses Delay(n), so three attempts produce exactly two waits.

RELATED FILES:
  - internal/engine/retry.go
  - internal/engine/stats.go

MAINTENANCE:
  - Keep the metadata keys ("mode", "call_order") stable; reporting
    tooling filters on them.
*/

package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/docstratum/stratum-runner/internal/config"
	"github.com/docstratum/stratum-runner/internal/model"
	"github.com/docstratum/stratum-runner/internal/output"
)

// Engine runs timed, retried A/B invocations and persists the results.
type Engine struct {
	invoker AgentInvoker
	policy  RetryPolicy
	stats   *Stats
	store   *output.Store

	controlModel  string
	variantModel  string
	contextTokens int
	settle        time.Duration
}

// New builds an engine from the loaded configuration.
func New(cfg *config.Config, invoker AgentInvoker, store *output.Store) *Engine {
	return &Engine{
		invoker:       invoker,
		policy:        PolicyFromConfig(cfg),
		stats:         NewStats(),
		store:         store,
		controlModel:  cfg.ControlModel,
		variantModel:  cfg.VariantModel,
		contextTokens: cfg.ContextTokens,
		settle:        cfg.SettleDelay(),
	}
}

// Stats exposes the engine's execution counters.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// InvokeWithRetry runs one question against one model under the retry
// policy. It always returns a terminal AgentResponse; invocation failure
// is data, not an error.
func (e *Engine) InvokeWithRetry(ctx context.Context, question, modelName string) model.AgentResponse {
	var lastErr error

	for attempt := 0; attempt < e.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			e.stats.RecordRetry()
			output.Logger.Info("Retrying invocation...",
				"model", modelName, "attempt", attempt+1, "delay", e.policy.Delay(attempt-1))
			if !sleepCtx(ctx, e.policy.Delay(attempt-1)) {
				// Run cancelled mid-backoff; surface the last failure.
				e.stats.RecordFailure(lastErr)
				return failedResponse(modelName, lastErr, attempt)
			}
		}

		e.stats.RecordAttempt()
		attemptCtx, cancel := context.WithTimeout(ctx, e.policy.AttemptTimeout)
		start := time.Now()
		res, err := e.invoker.Invoke(attemptCtx, question, modelName)
		elapsed := time.Since(start)
		cancel()

		if err == nil {
			e.stats.RecordSuccess(attempt)
			return model.AgentResponse{
				Response:         res.Response,
				PromptTokens:     res.PromptTokens,
				CompletionTokens: res.CompletionTokens,
				LatencyMS:        float64(elapsed) / float64(time.Millisecond),
				Model:            modelName,
				Timestamp:        time.Now().UTC(),
				RetryCount:       attempt,
			}
		}

		if isTimeout(err) {
			e.stats.RecordTimeout()
		}
		if IsPermanent(err) {
			e.stats.RecordFailure(err)
			output.Logger.Error("Invocation failed permanently", "model", modelName, "error", err)
			return failedResponse(modelName, err, 0)
		}
		lastErr = err
	}

	e.stats.RecordFailure(lastErr)
	output.Logger.Error("Invocation failed after all attempts",
		"model", modelName, "attempts", e.policy.MaxAttempts, "error", lastErr)
	return failedResponse(modelName, lastErr, e.policy.MaxAttempts)
}

// RunTest runs one question through both models in the given mode,
// assembles the comparison and persists it before returning. The returned
// error is a persistence failure only.
func (e *Engine) RunTest(ctx context.Context, question, sessionID, mode string, randomizeOrder bool) (model.ABTestResult, error) {
	var control, variant model.AgentResponse
	metadata := map[string]string{"mode": mode}

	switch mode {
	case config.ModeConcurrent:
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			control = e.InvokeWithRetry(ctx, question, e.controlModel)
		}()
		go func() {
			defer wg.Done()
			variant = e.InvokeWithRetry(ctx, question, e.variantModel)
		}()
		wg.Wait()

	default: // sequential with settle delay
		controlFirst := true
		if randomizeOrder {
			controlFirst = rand.IntN(2) == 0
		}
		if controlFirst {
			metadata["call_order"] = "control_first"
			control = e.InvokeWithRetry(ctx, question, e.controlModel)
			sleepCtx(ctx, e.settle)
			variant = e.InvokeWithRetry(ctx, question, e.variantModel)
		} else {
			metadata["call_order"] = "variant_first"
			variant = e.InvokeWithRetry(ctx, question, e.variantModel)
			sleepCtx(ctx, e.settle)
			control = e.InvokeWithRetry(ctx, question, e.controlModel)
		}
	}

	result := model.ABTestResult{
		Question:      question,
		Control:       control,
		Variant:       variant,
		ContextTokens: e.contextTokens,
		Timestamp:     time.Now().UTC(),
		SessionID:     sessionID,
		Metadata:      metadata,
	}

	// Eager persistence for crash safety. A produced result is never
	// silently dropped, so a storage failure is a hard failure here.
	loc, err := e.store.SaveResult(result)
	if err != nil {
		return result, fmt.Errorf("failed to persist result for question %q: %w", question, err)
	}
	output.Logger.Info("Result persisted", "location", loc, "session", sessionID)
	return result, nil
}

// failedResponse is the terminal record for an exhausted or permanently
// failed invocation: zero tokens, zero latency, error message set.
func failedResponse(modelName string, err error, retryCount int) model.AgentResponse {
	return model.AgentResponse{
		Model:      modelName,
		Timestamp:  time.Now().UTC(),
		Error:      errorMessage(err),
		RetryCount: retryCount,
	}
}

// errorMessage strips the transient/permanent tag down to the underlying
// message for the persisted error field.
func errorMessage(err error) string {
	switch e := err.(type) {
	case *TransientError:
		return e.Err.Error()
	case *PermanentError:
		return e.Err.Error()
	case nil:
		return "invocation cancelled"
	default:
		return err.Error()
	}
}

// sleepCtx sleeps for d unless ctx finishes first. Reports whether the
// full wait elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
