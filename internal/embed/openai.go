// Package embed provides the embedding collaborator client. Any service
// exposing the OpenAI embeddings API shape works, including local servers
// fronting sentence-transformer models.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"

	"cvrag/internal/logger"
)

// Config configures the embeddings client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible /embeddings endpoint and returns
// unit-normalized vectors. Dimension is discovered from the first response.
// One client is shared by concurrent upserts, so the lazy dimension is
// atomic.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	dimension  atomic.Int64
}

// NewClient creates a new embeddings client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Dimension returns the vector dimension, 0 until the first embedding.
func (c *Client) Dimension() int { return int(c.dimension.Load()) }

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// EmbedText implements core.EmbedService. Transient failures (429, 5xx,
// network errors) are retried with exponential backoff; API errors are not.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vector []float32

	err := retry.Do(
		func() error {
			v, err := c.embedOnce(ctx, text)
			if err != nil {
				return err
			}
			vector = v
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(5*time.Second),
		retry.RetryIf(func(err error) bool {
			var pe *permanentError
			return !errors.As(err, &pe)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	NormalizeVector(vector)
	if c.dimension.CompareAndSwap(0, int64(len(vector))) {
		logger.Debug("embedding dimension discovered: %d", len(vector))
	}
	return vector, nil
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embeddingRequest{Input: text, Model: c.model})
	if err != nil {
		return nil, permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, permanent(fmt.Errorf("embeddings request failed: %s: %s", resp.Status, string(body)))
	}

	var out embeddingResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if out.Error != nil {
		return nil, permanent(fmt.Errorf("embeddings API error: %s", out.Error.Message))
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, permanent(fmt.Errorf("no embedding returned"))
	}
	return out.Data[0].Embedding, nil
}
