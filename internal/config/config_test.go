package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:19530", cfg.Milvus.Address)
	assert.Equal(t, "cv_blocks", cfg.Milvus.Collection)
	assert.InDelta(t, 0.3, cfg.Pipeline.MinConfidence, 1e-9)
	assert.Equal(t, 120, cfg.Pipeline.MaxWords)
	assert.Equal(t, 3, cfg.Pipeline.TopK)
	assert.Equal(t, 3, cfg.LLM.MaxConcurrent)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.APIKeyEnv)
	assert.Equal(t, "TELEGRAM_BOT_TOKEN", cfg.Telegram.TokenEnv)
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
milvus:
  address: "milvus.internal:19530"
pipeline:
  top_k: 10
llm:
  model: "custom/model"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "milvus.internal:19530", cfg.Milvus.Address)
	assert.Equal(t, 10, cfg.Pipeline.TopK)
	assert.Equal(t, "custom/model", cfg.LLM.Model)
	// untouched fields still get defaults
	assert.Equal(t, "cv_blocks", cfg.Milvus.Collection)
	assert.Equal(t, 120, cfg.Pipeline.MaxWords)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("milvus: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSecretsComeFromEnvironment(t *testing.T) {
	cfg := Default()
	t.Setenv("OPENAI_API_KEY", "sk-test-embed")
	t.Setenv("OPENROUTER_API_KEY", "sk-test-llm")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-test-token")

	assert.Equal(t, "sk-test-embed", cfg.EmbedderAPIKey())
	assert.Equal(t, "sk-test-llm", cfg.LLMAPIKey())
	assert.Equal(t, "tg-test-token", cfg.TelegramToken())
}
