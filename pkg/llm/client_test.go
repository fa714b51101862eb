package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"news-rag-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "hi", req.Messages[0].Content)
		require.NotNil(t, req.MaxTokens)
		assert.Equal(t, 256, *req.MaxTokens)
		assert.Nil(t, req.Temperature)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{
		APIKey:     "secret",
		BaseURL:    srv.URL,
		Model:      "test-model",
		Generation: config.LLMGenerationConfig{MaxTokens: 256},
	})
	got, err := c.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", got)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non-200", http.StatusServiceUnavailable, `{"error":"overloaded"}`},
		{"malformed", http.StatusOK, `not json`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(config.LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "hi")
			assert.Error(t, err)
		})
	}
}
