package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cvrag/internal/config"
	"cvrag/internal/core"
	"cvrag/internal/embed"
	"cvrag/internal/index"
	"cvrag/internal/llm"
	"cvrag/internal/logger"
	"cvrag/internal/pipeline"
)

var (
	cfgFile string
	debug   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cvrag",
	Short: "CV question answering over OCR output",
	Long: `cvrag turns OCR'd CVs into an incrementally built vector index and
answers questions against it, one grounded answer per candidate.

The pipeline stages:
  - clean: normalize OCR lines and restore reading order
  - segment: merge lines into word-bounded retrieval blocks
  - ingest: embed and index blocks, skipping ones already present
  - ask: retrieve relevant blocks and synthesize per-candidate answers`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "config.yaml", "config file path",
	)
	rootCmd.PersistentFlags().BoolVar(
		&debug, "debug", false, "enable debug logging",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments set the environment directly.
		_ = godotenv.Load()
		logger.Init(debug)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		return nil
	}

	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(segmentCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(botCmd)
}

// buildService wires the full pipeline against Milvus and the remote
// model endpoints. The returned cleanup closes the store connection.
func buildService(ctx context.Context) (*pipeline.Service, func(), error) {
	store, err := index.NewMilvusStore(ctx, cfg.Milvus.Address, cfg.Milvus.Collection, cfg.Milvus.EmbeddingDim)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	if err := store.Ensure(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to prepare collection: %w", err)
	}

	embedder := embed.NewClient(embed.Config{
		BaseURL: cfg.Embedder.BaseURL,
		APIKey:  cfg.EmbedderAPIKey(),
		Model:   cfg.Embedder.Model,
		Timeout: time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	model := llm.NewClient(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLMAPIKey(),
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})

	svc := pipeline.New(index.New(store, embedder), model, pipeline.Options{
		MinConfidence: cfg.Pipeline.MinConfidence,
		MaxWords:      cfg.Pipeline.MaxWords,
		TopK:          cfg.Pipeline.TopK,
		MaxConcurrent: cfg.LLM.MaxConcurrent,
	})
	cleanup := func() { store.Close() }
	return svc, cleanup, nil
}

// offlineService builds a pipeline without any remote connection, for the
// stages that only transform files.
func offlineService() *pipeline.Service {
	var noLLM core.LLMService
	return pipeline.New(nil, noLLM, pipeline.Options{
		MinConfidence: cfg.Pipeline.MinConfidence,
		MaxWords:      cfg.Pipeline.MaxWords,
	})
}
