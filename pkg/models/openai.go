// Package models provides core.Model implementations over HTTP LLM APIs.
package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/options"
)

// =============================================================================
// OpenAI-Compatible Model
// =============================================================================

// OpenAIModel calls any OpenAI-compatible chat completions endpoint.
// It covers OpenAI itself plus the many local and hosted servers that speak
// the same wire format (vLLM, Ollama, LiteLLM proxies).
type OpenAIModel struct {
	config     *options.ModelConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     core.Logger
}

// NewOpenAIModel creates a model backend for an OpenAI-compatible API.
func NewOpenAIModel(opts ...options.ModelOption) (*OpenAIModel, error) {
	cfg := options.DefaultModelConfig()
	options.ApplyModelOptions(cfg, opts...)

	if cfg.Model == "" {
		return nil, errors.E(errors.KindConfiguration, "models.NewOpenAIModel", "model name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.BurstLimit)
	}

	return &OpenAIModel{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     core.LoggerFromVerbose("models", cfg.Verbose),
	}, nil
}

// Name returns the model identifier.
func (m *OpenAIModel) Name() string {
	return m.config.Model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate sends a single-turn prompt and returns the completion text.
func (m *OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "models.Generate"

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return "", errors.E(errors.KindTimeout, op, "rate limit wait canceled", err)
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:       m.config.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: m.config.Temperature,
		MaxTokens:   m.config.MaxTokens,
	})
	if err != nil {
		return "", errors.E(errors.KindInternal, op, "marshal request", err)
	}

	url := strings.TrimSuffix(m.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.E(errors.KindInternal, op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	}

	m.logger.Debug("POST %s model=%s prompt_len=%d", url, m.config.Model, len(prompt))

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", errors.E(errors.KindNetwork, op, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", errors.E(errors.KindNetwork, op, "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.E(errors.KindNetwork, op,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errors.E(errors.KindNetwork, op, "decode response", err)
	}
	if parsed.Error != nil {
		return "", errors.E(errors.KindNetwork, op, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.E(errors.KindNetwork, op, "empty choices in response")
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure OpenAIModel implements core.Model
var _ core.Model = (*OpenAIModel)(nil)
