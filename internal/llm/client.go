// Package llm provides the generative-model collaborator client against
// any OpenAI-compatible chat-completions endpoint (OpenRouter, Ollama,
// vLLM, ...).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"cvrag/internal/logger"
)

// Config configures the completion client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client implements core.LLMService over /chat/completions.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a completion client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "qwen/qwen-2.5-7b-instruct"
	}
	if cfg.Timeout == 0 {
		// Generous: completions over large contexts are slow.
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		FinishReason string      `json:"finish_reason"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends one prompt as a single user message and returns the
// model's text. Transient transport failures are retried; API errors are
// surfaced immediately.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var answer string
	err := retry.Do(
		func() error {
			a, err := c.completeOnce(ctx, prompt)
			if err != nil {
				return err
			}
			answer = a
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			var ae *apiError
			return !errors.As(err, &ae)
		}),
		retry.LastErrorOnly(true),
	)
	return answer, err
}

func (c *Client) completeOnce(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", newAPIError(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", newAPIError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logger.Debug("sending completion request to %s (%d prompt bytes)", c.model, len(prompt))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", fmt.Errorf("completion request failed: %s", resp.Status)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", newAPIError(fmt.Errorf("failed to decode response (status %s): %w", resp.Status, err))
	}
	if out.Error != nil {
		return "", newAPIError(fmt.Errorf("completion API error: %s (code %d)", out.Error.Message, out.Error.Code))
	}
	if resp.StatusCode != http.StatusOK {
		return "", newAPIError(fmt.Errorf("completion request failed: %s: %s", resp.Status, string(body)))
	}
	if len(out.Choices) == 0 {
		return "", newAPIError(fmt.Errorf("completion API returned no choices"))
	}

	if out.Usage.TotalTokens > 0 {
		logger.Debug("completion usage: prompt=%d completion=%d total=%d",
			out.Usage.PromptTokens, out.Usage.CompletionTokens, out.Usage.TotalTokens)
	}
	return out.Choices[0].Message.Content, nil
}
