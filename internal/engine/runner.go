/*
PURPOSE:
  High-level runner that drives a whole question batch through the engine
  and owns the TestSession lifecycle.

REQUIREMENTS:
  User-specified:
  - Run every configured question as one control/variant comparison.
  - Persist each result eagerly; save the complete session at the end.

  Implementation-discovered:
  - With parallel > 1 questions run concurrently under errgroup; results
    land in the session in completion order (accepted non-determinism).
  - A persistence failure aborts the batch — a produced result must never
    be dropped silently.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/engine, internal/model, internal/output

ERROR HANDLING:
  - Invocation failures are data inside results; only storage failures
    (and config validation) abort the run.

IMPLEMENTATION RULES:
  - The session append is guarded by a runner-held mutex; TestSession
    itself stays a plain aggregate.

USAGE:
  err := engine.Run(cfg)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/engine.go
  - internal/model/session.go

MAINTENANCE:
  - Update the environment keys when new run metadata matters.
*/

package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/docstratum/stratum-runner/internal/config"
	"github.com/docstratum/stratum-runner/internal/model"
	"github.com/docstratum/stratum-runner/internal/output"
)

// Run executes the full A/B session against the configured server.
func Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	store, err := output.NewStore(cfg.OutputDir)
	if err != nil {
		return err
	}
	return RunWithInvoker(context.Background(), cfg, NewClient(cfg), store)
}

// RunWithInvoker is Run with the invoker and store supplied, so callers
// (and tests) can substitute their own.
func RunWithInvoker(ctx context.Context, cfg *config.Config, invoker AgentInvoker, store *output.Store) error {
	eng := New(cfg, invoker, store)

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess := model.NewSession(sessionID, cfg.ControlModel, cfg.VariantModel)
	sess.ContextSource = cfg.ContextSource
	sess.Notes = cfg.Notes
	sess.Environment = map[string]string{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}

	output.Logger.Info("Starting session",
		"session", sessionID,
		"control", cfg.ControlModel,
		"variant", cfg.VariantModel,
		"questions", len(cfg.Questions),
		"mode", cfg.Mode,
		"parallel", cfg.Parallel,
	)

	var mu sync.Mutex
	runOne := func(ctx context.Context, num int, question string) error {
		output.Logger.Info("Running test", "num", num+1, "total", len(cfg.Questions))
		res, err := eng.RunTest(ctx, question, sessionID, cfg.Mode, cfg.RandomizeOrder)
		if err != nil {
			return err
		}
		mu.Lock()
		sess.Append(res)
		mu.Unlock()

		output.Logger.Info("Test complete",
			"question", truncateForLog(question),
			"both_ok", res.BothSuccessful(),
			"token_overhead", res.TokenOverhead(),
			"latency_diff_ms", res.LatencyDiffMS(),
		)
		return nil
	}

	if cfg.Parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Parallel)
		for i, q := range cfg.Questions {
			g.Go(func() error { return runOne(gctx, i, q) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i, q := range cfg.Questions {
			if err := runOne(ctx, i, q); err != nil {
				return err
			}
		}
	}

	sess.Close(time.Now().UTC())
	loc, err := store.SaveSession(sess)
	if err != nil {
		return err
	}

	snap := eng.Stats().Snapshot()
	output.Logger.Info("Session complete",
		"session", sessionID,
		"location", loc,
		"tests", sess.TestCount(),
		"success_rate", sess.SuccessRate(),
		"duration", sess.Duration(),
		"attempts", snap.Attempts,
		"retries", snap.Retries,
		"timeouts", snap.Timeouts,
	)
	return nil
}

func truncateForLog(s string) string {
	const limit = 48
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
