package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "port: \"9090\"\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, SearchStrategyKeyword, cfg.SearchStrategy)
	assert.Equal(t, AIBackendOpenAI, cfg.AIBackend)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 1024, cfg.ChunkSize)
	assert.Equal(t, 128, cfg.ChunkOverlap)
	assert.False(t, cfg.VisionEnabled)
	assert.Equal(t, 60, cfg.QueryTimeoutSeconds)
}

func TestLoadConfig_FullFile(t *testing.T) {
	path := writeConfig(t, `
port: "8088"
data_dir: /var/lib/manuals
upload_dir: /var/lib/manuals/pdfs
ai_backend: gemini
gemini_api_keys:
  - key-one
  - key-two
search_strategy: vector
embedding_model: text-embedding-3-large
top_k: 8
chunk_size: 2048
chunk_overlap: 256
vision_enabled: true
vision_model: gpt-4o
query_timeout_seconds: 30
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, "/var/lib/manuals", cfg.DataDir)
	assert.Equal(t, AIBackendGemini, cfg.AIBackend)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.GeminiAPIKeys)
	assert.Equal(t, SearchStrategyVector, cfg.SearchStrategy)
	assert.Equal(t, 8, cfg.TopK)
	assert.Equal(t, 2048, cfg.ChunkSize)
	assert.True(t, cfg.VisionEnabled)
	assert.Equal(t, 30, cfg.QueryTimeoutSeconds)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		ChunkSize:      1024,
		ChunkOverlap:   128,
		TopK:           5,
		SearchStrategy: SearchStrategyKeyword,
		AIBackend:      AIBackendOpenAI,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"overlap equals chunk size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }},
		{"zero top_k", func(c *Config) { c.TopK = 0 }},
		{"unknown strategy", func(c *Config) { c.SearchStrategy = "semantic" }},
		{"unknown backend", func(c *Config) { c.AIBackend = "llama" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
