// Package real implements domain.AIClient against OpenRouter (chat) and
// OpenAI (embeddings).
package real

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"log/slog"

	"github.com/hirelens/matchengine/internal/adapter/observability"
	"github.com/hirelens/matchengine/internal/config"
	"github.com/hirelens/matchengine/internal/domain"
)

// Client implements domain.AIClient using OpenRouter for chat completions and
// OpenAI for embeddings.
type Client struct {
	cfg     config.Config
	chatHC  *http.Client
	embedHC *http.Client
}

// New constructs a real AI client. HTTP client timeouts are outer bounds;
// per-call deadlines come from the caller's context.
func New(cfg config.Config) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport)
	return &Client{
		cfg:     cfg,
		chatHC:  &http.Client{Timeout: 60 * time.Second, Transport: transport},
		embedHC: &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

func (c *Client) getBackoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// ChatJSON calls OpenRouter chat completions with the configured model and
// returns the raw message content. 429 and 5xx responses are retried with
// exponential backoff; other 4xx responses fail immediately.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY missing", domain.ErrInvalidInput)
	}

	body := map[string]any{
		"model":       c.cfg.ChatModel,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, _ := json.Marshal(body)

	var out struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	endpoint := c.cfg.OpenRouterBaseURL + "/chat/completions"
	op := func() error {
		start := time.Now()
		// Recreate request each attempt to avoid reusing consumed bodies
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.chatHC.Do(r)
		observability.AIRequestsTotal.WithLabelValues("openrouter", "chat").Inc()
		observability.AIRequestDuration.WithLabelValues("openrouter", "chat").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			slog.Warn("ai provider rate limited",
				slog.String("provider", "openrouter"),
				slog.String("op", "chat"),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			return fmt.Errorf("%w: chat status 429", domain.ErrUpstreamRateLimit)
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			slog.Warn("ai provider 4xx",
				slog.String("provider", "openrouter"),
				slog.String("op", "chat"),
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.ChatModel),
				slog.String("body", snippet(bodyBytes)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			slog.Error("ai provider non-2xx",
				slog.String("provider", "openrouter"),
				slog.String("op", "chat"),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(bodyBytes)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(bodyBytes, &out); err != nil {
			slog.Error("ai provider decode error",
				slog.String("provider", "openrouter"),
				slog.String("op", "chat"),
				slog.Any("error", err))
			return err
		}
		return nil
	}

	bo := backoff.WithContext(c.getBackoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", classifyUpstreamErr(ctx, "openrouter chat", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("empty choices from openrouter")
	}
	if out.Model != "" && out.Model != c.cfg.ChatModel {
		slog.Warn("model substitution detected",
			slog.String("requested_model", c.cfg.ChatModel),
			slog.String("actual_model", out.Model))
	}
	return out.Choices[0].Message.Content, nil
}

// Embed calls OpenAI embeddings for all texts in one request, preserving
// input order.
func (c *Client) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidInput)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	body := map[string]any{
		"model": c.cfg.EmbeddingsModel,
		"input": texts,
	}
	b, _ := json.Marshal(body)

	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	endpoint := c.cfg.OpenAIBaseURL + "/embeddings"
	op := func() error {
		start := time.Now()
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.embedHC.Do(r)
		observability.AIRequestsTotal.WithLabelValues("openai", "embeddings").Inc()
		observability.AIRequestDuration.WithLabelValues("openai", "embeddings").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			slog.Warn("ai provider rate limited",
				slog.String("provider", "openai"),
				slog.String("op", "embeddings"))
			return fmt.Errorf("%w: embeddings status 429", domain.ErrUpstreamRateLimit)
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			slog.Warn("ai provider 4xx",
				slog.String("provider", "openai"),
				slog.String("op", "embeddings"),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(bodyBytes)))
			return backoff.Permanent(fmt.Errorf("embeddings status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			slog.Error("ai provider non-2xx",
				slog.String("provider", "openai"),
				slog.String("op", "embeddings"),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(bodyBytes)))
			return fmt.Errorf("embeddings status %d", resp.StatusCode)
		}
		return json.Unmarshal(bodyBytes, &out)
	}

	bo := backoff.WithContext(c.getBackoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, classifyUpstreamErr(ctx, "openai embeddings", err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings count mismatch: got %d want %d", len(out.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embeddings index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// classifyUpstreamErr maps exhausted-retry errors onto the domain sentinels
// the HTTP layer translates to status codes.
func classifyUpstreamErr(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamTimeout, op, err)
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}

func snippet(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}
