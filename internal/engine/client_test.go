package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstratum/stratum-runner/internal/config"
)

func clientFor(url string) *Client {
	cfg := config.DefaultConfig()
	cfg.URL = url
	return NewClient(cfg)
}

func TestClientInvokeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		w.Write([]byte(`{"response":"Paris.","done":true,"prompt_eval_count":12,"eval_count":4}`))
	}))
	defer srv.Close()

	res, err := clientFor(srv.URL).Invoke(context.Background(), "Capital of France?", "llama3.1:8b")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", res.Response)
	assert.Equal(t, 12, res.PromptTokens)
	assert.Equal(t, 4, res.CompletionTokens)
}

func TestClientInvokeErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantPermanent bool
	}{
		{"unknown model", http.StatusNotFound, `{"error":"model not found"}`, true},
		{"malformed request", http.StatusBadRequest, `{"error":"invalid options"}`, true},
		{"server overloaded", http.StatusInternalServerError, "busy", false},
		{"bad gateway", http.StatusBadGateway, "upstream gone", false},
		{"garbage body", http.StatusOK, `{"response": <<<`, true},
		{"api-level error", http.StatusOK, `{"error":"unable to load model"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := clientFor(srv.URL).Invoke(context.Background(), "q", "m")
			require.Error(t, err)
			assert.Equal(t, tt.wantPermanent, IsPermanent(err))
			assert.Equal(t, !tt.wantPermanent, IsTransient(err))
		})
	}
}

func TestClientInvokeDeadlineIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := clientFor(srv.URL).Invoke(ctx, "q", "m")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestClientInvokeConnectionRefusedIsTransient(t *testing.T) {
	// Grab a port that nothing is listening on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead := srv.URL
	srv.Close()

	_, err := clientFor(dead).Invoke(context.Background(), "q", "m")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.False(t, IsPermanent(err))
}

func TestClientModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llama3.1:8b"},{"name":"qwen2.5:7b"}]}`))
	}))
	defer srv.Close()

	models, err := clientFor(srv.URL).Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.1:8b", "qwen2.5:7b"}, models)
}
