package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwheel-app/cartwheel/internal/common"
)

func TestGeminiGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash-lite:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "contents")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "hello"}}}},
			},
		})
	}))
	defer server.Close()

	client, err := newGeminiClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	client.(*geminiClient).baseURL = server.URL

	reply, err := client.Generate(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
}

func TestGeminiGenerateErrors(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		body    string
		status  int
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: "{}", wantErr: common.ErrRateLimit},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: common.ErrUpstreamUnavailable},
		{name: "empty candidates", status: http.StatusOK, body: `{"candidates": []}`, wantErr: common.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := newGeminiClient(Config{APIKey: "test-key"})
			require.NoError(t, err)
			client.(*geminiClient).baseURL = server.URL

			_, err = client.Generate(context.Background(), "prompt")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-3-5-haiku-latest", body["model"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "hello"}},
		})
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	client.(*anthropicClient).baseURL = server.URL

	reply, err := client.Generate(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
}

func TestAnthropicGenerateRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	client.(*anthropicClient).baseURL = server.URL

	_, err = client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, common.ErrRateLimit)
}

func TestNewClientProviderSelection(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		wantErr  bool
	}{
		{name: "default is gemini", provider: "", apiKey: "k"},
		{name: "gemini", provider: "gemini", apiKey: "k"},
		{name: "anthropic", provider: "Anthropic", apiKey: "k"},
		{name: "unknown provider", provider: "openrouter", apiKey: "k", wantErr: true},
		{name: "missing key", provider: "gemini", apiKey: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(Config{Provider: tt.provider, APIKey: tt.apiKey})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClientMissingKeyError(t *testing.T) {
	_, err := NewClient(Config{Provider: "anthropic"})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
