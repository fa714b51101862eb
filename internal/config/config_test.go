package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.False(t, cfg.Server.IsProduction())
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.False(t, cfg.Redis.Required)
	assert.Equal(t, time.Hour, cfg.Redis.TTL())
	assert.Equal(t, 500*time.Millisecond, cfg.Redis.OpTimeout())
	assert.Equal(t, 10*time.Second, cfg.Pipeline.OverallTimeout())
	assert.Equal(t, 1500*time.Millisecond, cfg.Pipeline.IngestTimeout())
	assert.Equal(t, 1500*time.Millisecond, cfg.Pipeline.RetrieveTimeout())
	assert.Equal(t, 3, cfg.Pipeline.TopK)
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", cfg.Embedding.HF.Model)
	assert.Empty(t, cfg.Embedding.Jina.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("REQUIRE_REDIS", "TRUE")
	t.Setenv("SESSION_TTL_SECONDS", "60")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JINA_API_KEY", "jina-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("EMBEDDINGS_PROVIDER", "hf")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Server.Port)
	assert.True(t, cfg.Redis.Required)
	assert.Equal(t, time.Minute, cfg.Redis.TTL())
	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, "jina-key", cfg.Embedding.Jina.APIKey)
	assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
	assert.Equal(t, "hf", cfg.Embedding.Provider)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9000"
redis:
  url: "redis://cache:6380"
  tls: true
pipeline:
  top_k: 5
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "redis://cache:6380", cfg.Redis.URL)
	assert.True(t, cfg.Redis.TLS)
	assert.Equal(t, 5, cfg.Pipeline.TopK)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
