// internal/llmclient/ollama_client.go
package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/uipilot/internal/config"
)

// OllamaClient talks to an Ollama style /api/generate endpoint.
type OllamaClient struct {
	endpoint   string
	model      string
	maxRetries int
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *zap.Logger
}

// -- Ollama API Request/Response Structures --
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// NewOllamaClient initializes the client.
func NewOllamaClient(cfg config.ModelConfig, logger *zap.Logger) (*OllamaClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("model endpoint is required")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("model name is required")
	}

	// Zero means no client side limit.
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &OllamaClient{
		endpoint:   cfg.Endpoint,
		model:      cfg.Name,
		maxRetries: cfg.MaxRetries,
		limiter:    rate.NewLimiter(limit, 1),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("llm_client.ollama"),
	}, nil
}

// Generate posts the prompt without streaming and returns the model's
// response text. Transport failures and 5xx/429 statuses are retried.
// Every attempt, retries included, waits on the request limiter.
func (c *OllamaClient) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	payload := ollamaRequest{Model: c.model, Prompt: req.Prompt, Stream: false}
	if req.ForceJSON {
		payload.Format = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	var policy backoff.BackOff = b
	if c.maxRetries >= 0 {
		policy = backoff.WithMaxRetries(b, uint64(c.maxRetries))
	}

	var responseContent string

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("request limiter: %w", err))
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		startTime := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		duration := time.Since(startTime)

		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Warn("Network error during model request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleAPIError(resp.StatusCode, respBody)
		}

		var out ollamaResponse
		if err := json.Unmarshal(respBody, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}

		c.logger.Debug("Model generation complete",
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Int("prompt_tokens", out.PromptEvalCount),
			zap.Int("completion_tokens", out.EvalCount),
		)

		responseContent = out.Response
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}
	return responseContent, nil
}

func (c *OllamaClient) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("Model endpoint returned error status", zap.Int("status", statusCode), zap.String("response", string(body)))
	err := fmt.Errorf("model API error: status %d, body: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError, http.StatusBadGateway:
		return err // Transient errors, retry.
	default:
		return backoff.Permanent(err)
	}
}
