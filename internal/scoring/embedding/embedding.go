// Package embedding scores documents by cosine similarity of dense vectors
// obtained from the external embedding provider.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hirelens/matchengine/internal/domain"
	"github.com/hirelens/matchengine/internal/scoring/vector"
)

// Scorer requests embeddings for both documents in one batched provider call
// and compares them. Provider failure or timeout degrades to
// domain.ErrSignalUnavailable so the aggregator can redistribute the weight;
// it never becomes a hard zero for the candidate.
type Scorer struct {
	ai      domain.AIClient
	timeout time.Duration
}

// NewScorer wires the embedding provider port with a per-call timeout.
func NewScorer(ai domain.AIClient, timeout time.Duration) *Scorer {
	return &Scorer{ai: ai, timeout: timeout}
}

// Score returns embedding cosine similarity scaled to [0,100].
func (s *Scorer) Score(ctx domain.Context, requirementText, candidateText string) (float64, error) {
	if requirementText == "" || candidateText == "" {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vecs, err := s.ai.Embed(ctx, []string{requirementText, candidateText})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Warn("embedding provider timed out", slog.Duration("timeout", s.timeout))
			return 0, fmt.Errorf("%w: embedding timeout: %v", domain.ErrSignalUnavailable, err)
		}
		slog.Warn("embedding provider failed", slog.Any("error", err))
		return 0, fmt.Errorf("%w: embedding: %v", domain.ErrSignalUnavailable, err)
	}
	if len(vecs) != 2 {
		return 0, fmt.Errorf("%w: embedding returned %d vectors", domain.ErrSignalUnavailable, len(vecs))
	}
	sim := vector.Cosine32(vecs[0], vecs[1])
	return math.Round(math.Max(0, math.Min(1, sim)) * 100), nil
}
