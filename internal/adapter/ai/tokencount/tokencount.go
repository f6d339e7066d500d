// Package tokencount provides token counting for LLM prompt budgeting.
//
// It uses tiktoken-go, a Go port of OpenAI's official tiktoken library, with a
// character-based estimate as fallback so budgeting never fails hard.
package tokencount

import (
	"strings"
	"sync"

	"log/slog"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting for LLM models.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) getEncodingForModel(model string) (*tiktoken.Tiktoken, error) {
	normalized := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[normalized]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[normalized]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(normalized)
	if err != nil {
		// cl100k_base covers GPT-4/3.5 and approximates most modern models.
		slog.Debug("falling back to cl100k_base encoding",
			slog.String("model", model),
			slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.encodingCache[normalized] = enc
	return enc, nil
}

// normalizeModelName converts provider model IDs to tiktoken-compatible names.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	// OpenRouter model IDs carry provider prefixes and :free suffixes,
	// e.g. "meta-llama/llama-3.1-8b-instruct:free".
	if strings.Contains(model, "/") {
		parts := strings.Split(model, "/")
		model = parts[len(parts)-1]
	}
	model = strings.TrimSuffix(model, ":free")

	switch {
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	case strings.Contains(model, "gpt-4"):
		return "gpt-4"
	default:
		// Llama, Mistral, Qwen and friends tokenize close enough to GPT-4.
		return "gpt-4"
	}
}

// CountTokens counts tokens in text for a given model, estimating when the
// encoding is unavailable.
func (c *Counter) CountTokens(text, model string) int {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		slog.Warn("token encoding unavailable, using estimate",
			slog.String("model", model),
			slog.Any("error", err))
		return EstimateTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// EstimateTokens approximates token count at ~4 characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// TruncateToTokens cuts text so it stays within budget tokens, preserving a
// leading slice of the document. Zero or negative budgets return text as-is.
func (c *Counter) TruncateToTokens(text, model string, budget int) string {
	if budget <= 0 {
		return text
	}
	n := c.CountTokens(text, model)
	if n <= budget {
		return text
	}
	// Proportional cut with a small safety margin, then re-check once.
	keep := len(text) * budget / n
	if keep >= len(text) {
		keep = len(text) - 1
	}
	truncated := text[:keep]
	if c.CountTokens(truncated, model) > budget {
		truncated = truncated[:len(truncated)*9/10]
	}
	return truncated
}
