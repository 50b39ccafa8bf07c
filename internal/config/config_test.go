package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.DocsPath)
	assert.Equal(t, "index", cfg.Index.Path)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "flat", cfg.VectorStore.Type)
	assert.Equal(t, 3, cfg.Chat.TopK)
	assert.Equal(t, 0.5, cfg.Chat.ScoreThreshold)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Server.SessionTTLMins)
	assert.Equal(t, 1024, cfg.Server.MaxSessions)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
docs_path: /srv/docs
chunker:
  chunk_size: 400
chat:
  top_k: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", cfg.DocsPath)
	assert.Equal(t, 400, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.ChunkOverlap, "unset overlap gets its default")
	assert.Equal(t, 5, cfg.Chat.TopK)
	assert.Equal(t, 0.5, cfg.Chat.ScoreThreshold)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadInvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker: [not a mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadFillsOpenAIGeneratorDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generator:
  type: openai
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Generator.OpenAI)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Generator.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Generator.OpenAI.APIKeyEnv)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.OpenAI.Model)
	require.NotNil(t, cfg.Generator.OpenAI.Temperature)
	assert.Equal(t, 0.7, *cfg.Generator.OpenAI.Temperature)
}

func TestLoadKeepsExplicitZeroTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generator:
  type: openai
  openai:
    temperature: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Generator.OpenAI.Temperature)
	assert.Equal(t, 0.0, *cfg.Generator.OpenAI.Temperature)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	want := defaultConfig()
	want.DocsPath = "/var/docs"
	want.Chat.TopK = 7
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
