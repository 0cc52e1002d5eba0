package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstratum/stratum-runner/internal/model"
)

func sampleResult(sessionID string) model.ABTestResult {
	return model.ABTestResult{
		Question: "What is a REST API?",
		Control: model.AgentResponse{
			Response:         strings.Repeat("c", 150),
			PromptTokens:     100,
			CompletionTokens: 50,
			LatencyMS:        100,
			Model:            "llama3.1:8b",
			Timestamp:        time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC),
		},
		Variant: model.AgentResponse{
			Response:         strings.Repeat("v", 450),
			PromptTokens:     300,
			CompletionTokens: 150,
			LatencyMS:        230,
			Model:            "llama3.1:8b",
			Timestamp:        time.Date(2026, 2, 6, 10, 0, 1, 0, time.UTC),
			RetryCount:       1,
		},
		ContextTokens: 4500,
		Timestamp:     time.Date(2026, 2, 6, 10, 0, 2, 0, time.UTC),
		SessionID:     sessionID,
		Metadata:      map[string]string{"mode": "sequential"},
	}
}

func sampleSession(id string) *model.TestSession {
	sess := &model.TestSession{
		SessionID:     id,
		StartTime:     time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC),
		ControlModel:  "llama3.1:8b",
		VariantModel:  "llama3.1:8b",
		ContextSource: "llms.txt",
		Environment:   map[string]string{"os": "linux", "arch": "amd64"},
		Notes:         "round trip fixture",
		Results:       []model.ABTestResult{sampleResult(id), sampleResult(id)},
	}
	end := time.Date(2026, 2, 6, 10, 15, 0, 0, time.UTC)
	sess.EndTime = &end
	return sess
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveResultCreatesUniqueFiles(t *testing.T) {
	store := newTestStore(t)

	loc1, err := store.SaveResult(sampleResult("s1"))
	require.NoError(t, err)
	loc2, err := store.SaveResult(sampleResult("s1"))
	require.NoError(t, err)

	assert.NotEqual(t, loc1, loc2)
	for _, loc := range []string{loc1, loc2} {
		data, err := os.ReadFile(loc)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"token_overhead": 300`)
		assert.Contains(t, string(data), `"latency_diff_ms": 130`)
		assert.Contains(t, string(data), `"baseline":`)
	}
}

func TestSaveLoadSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	orig := sampleSession("round-trip")

	loc, err := store.SaveSession(orig)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "session__round-trip.json"), loc)

	got, err := store.LoadSession("round-trip")
	require.NoError(t, err)

	// Field-for-field identity, including nested responses and timestamps.
	assert.Equal(t, orig, got)
}

func TestLoadSessionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadSession("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveSessionLastWriterWins(t *testing.T) {
	store := newTestStore(t)
	sess := sampleSession("overwrite")

	_, err := store.SaveSession(sess)
	require.NoError(t, err)

	sess.Notes = "second write"
	sess.Results = append(sess.Results, sampleResult("overwrite"))
	_, err = store.SaveSession(sess)
	require.NoError(t, err)

	got, err := store.LoadSession("overwrite")
	require.NoError(t, err)
	assert.Equal(t, "second write", got.Notes)
	assert.Equal(t, 3, got.TestCount())

	// Atomic replace leaves exactly one session file and no temp litter.
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session__overwrite.json", entries[0].Name())
}

func TestListSessions(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"beta", "alpha", "gamma"} {
		_, err := store.SaveSession(sampleSession(id))
		require.NoError(t, err)
	}
	// Result files and strangers must not show up as sessions.
	_, err := store.SaveResult(sampleResult("beta"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("hi"), 0644))

	ids, err := store.ListSessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, ids)
}

func TestListSessionsEmpty(t *testing.T) {
	store := newTestStore(t)
	ids, err := store.ListSessions()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSaveSessionCSV(t *testing.T) {
	store := newTestStore(t)
	sess := sampleSession("csv")

	loc, err := store.SaveSessionCSV(sess)
	require.NoError(t, err)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3) // header + two results

	assert.Equal(t,
		"question,control_tokens,variant_tokens,token_overhead,control_latency_ms,variant_latency_ms,latency_diff_ms,response_length_ratio",
		lines[0])
	assert.Equal(t, "What is a REST API?,150,450,300,100.00,230.00,130.00,3.00", lines[1])
}

func TestSaveSessionCSVTruncatesQuestion(t *testing.T) {
	store := newTestStore(t)
	sess := sampleSession("long-q")
	long := strings.Repeat("q", 200)
	sess.Results = sess.Results[:1]
	sess.Results[0].Question = long

	loc, err := store.SaveSessionCSV(sess)
	require.NoError(t, err)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], strings.Repeat("q", 80)+","))
	assert.NotContains(t, lines[1], strings.Repeat("q", 81))
}
