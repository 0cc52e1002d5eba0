package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstratum/stratum-runner/internal/output"
)

func TestRunWithInvokerBuildsSession(t *testing.T) {
	dir := t.TempDir()
	store, err := output.NewStore(dir)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.SessionID = "batch-1"
	cfg.SettleDelayMS = 0
	cfg.Questions = []string{"q1", "q2", "q3"}
	cfg.ContextSource = "llms.txt"
	cfg.Notes = "nightly comparison"

	require.NoError(t, RunWithInvoker(context.Background(), cfg, echoInvoker(0), store))

	sess, err := store.LoadSession("batch-1")
	require.NoError(t, err)
	assert.Equal(t, "batch-1", sess.SessionID)
	assert.Equal(t, "baseline:8b", sess.ControlModel)
	assert.Equal(t, "stratum:8b", sess.VariantModel)
	assert.Equal(t, "llms.txt", sess.ContextSource)
	assert.Equal(t, "nightly comparison", sess.Notes)
	assert.Equal(t, 3, sess.TestCount())
	assert.InDelta(t, 1.0, sess.SuccessRate(), 1e-9)
	require.NotNil(t, sess.EndTime)
	assert.NotEmpty(t, sess.Environment["go_version"])
	assert.NotEmpty(t, sess.Environment["os"])

	// Sequential scheduling preserves submission order.
	questions := []string{sess.Results[0].Question, sess.Results[1].Question, sess.Results[2].Question}
	assert.Equal(t, []string{"q1", "q2", "q3"}, questions)
}

func TestRunWithInvokerParallelBatch(t *testing.T) {
	dir := t.TempDir()
	store, err := output.NewStore(dir)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.SessionID = "batch-par"
	cfg.SettleDelayMS = 0
	cfg.Parallel = 4
	cfg.Questions = []string{"q1", "q2", "q3", "q4", "q5", "q6"}

	require.NoError(t, RunWithInvoker(context.Background(), cfg, echoInvoker(0), store))

	sess, err := store.LoadSession("batch-par")
	require.NoError(t, err)
	assert.Equal(t, 6, sess.TestCount())

	// Session order is completion order; every question appears exactly once.
	seen := map[string]int{}
	for _, r := range sess.Results {
		seen[r.Question]++
	}
	for _, q := range cfg.Questions {
		assert.Equal(t, 1, seen[q], "question %s", q)
	}
}

func TestRunWithInvokerGeneratesSessionID(t *testing.T) {
	dir := t.TempDir()
	store, err := output.NewStore(dir)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.SessionID = ""
	cfg.SettleDelayMS = 0
	cfg.Questions = []string{"q1"}

	require.NoError(t, RunWithInvoker(context.Background(), cfg, echoInvoker(0), store))

	ids, err := store.ListSessions()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.NotEmpty(t, ids[0])
}

func TestRunValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = "sideways"
	err := Run(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
}
