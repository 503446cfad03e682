// Package config loads the application configuration: a YAML file for
// tunables plus environment variables for secrets. API keys never live in
// the file, only the names of the env vars that carry them.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cvrag/internal/answer"
	"cvrag/internal/clean"
	"cvrag/internal/index"
	"cvrag/internal/pipeline"
	"cvrag/internal/segment"
)

// MilvusConfig contains connection details for the vector store.
type MilvusConfig struct {
	Address      string `yaml:"address"`
	Collection   string `yaml:"collection"`
	EmbeddingDim int    `yaml:"embedding_dim"`
}

// EmbedderConfig configures the OpenAI-compatible embeddings endpoint.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig configures the chat-completion endpoint used for answers.
type LLMConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKeyEnv     string `yaml:"api_key_env"`
	Model         string `yaml:"model"`
	TimeoutSecs   int    `yaml:"timeout_secs"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// PipelineConfig holds the processing tunables.
type PipelineConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
	MaxWords      int     `yaml:"max_words"`
	TopK          int     `yaml:"top_k"`
	IngestWorkers int     `yaml:"ingest_workers"`
}

// TelegramConfig configures the optional Telegram front end. Only the env
// var name is configured; the token itself stays out of the file.
type TelegramConfig struct {
	TokenEnv string `yaml:"token_env"`
}

// Config is the root configuration.
type Config struct {
	Milvus   MilvusConfig   `yaml:"milvus"`
	Embedder EmbedderConfig `yaml:"embedder"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// Load reads the config from path. A missing file yields the defaults; a
// malformed one is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// EmbedderAPIKey resolves the embedder API key from the environment.
func (c *Config) EmbedderAPIKey() string {
	return os.Getenv(c.Embedder.APIKeyEnv)
}

// LLMAPIKey resolves the completion API key from the environment.
func (c *Config) LLMAPIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// TelegramToken resolves the bot token from the environment.
func (c *Config) TelegramToken() string {
	return os.Getenv(c.Telegram.TokenEnv)
}

func applyDefaults(cfg *Config) {
	if cfg.Milvus.Address == "" {
		cfg.Milvus.Address = "localhost:19530"
	}
	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = index.DefaultCollection
	}
	if cfg.Milvus.EmbeddingDim == 0 {
		cfg.Milvus.EmbeddingDim = index.DefaultEmbeddingDim
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENROUTER_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "qwen/qwen-2.5-7b-instruct"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.LLM.MaxConcurrent == 0 {
		cfg.LLM.MaxConcurrent = answer.DefaultMaxConcurrent
	}
	if cfg.Pipeline.MinConfidence == 0 {
		cfg.Pipeline.MinConfidence = clean.DefaultMinConfidence
	}
	if cfg.Pipeline.MaxWords == 0 {
		cfg.Pipeline.MaxWords = segment.DefaultMaxWords
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = pipeline.DefaultTopK
	}
	if cfg.Pipeline.IngestWorkers == 0 {
		cfg.Pipeline.IngestWorkers = 4
	}
	if cfg.Telegram.TokenEnv == "" {
		cfg.Telegram.TokenEnv = "TELEGRAM_BOT_TOKEN"
	}
}
