package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrSignalUnavailable = errors.New("signal unavailable")
	ErrSemanticAnalysis  = errors.New("semantic analysis failed")
	ErrCache             = errors.New("cache unavailable")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrInternal          = errors.New("internal error")
)

// PerformanceMode selects which signals run and how they are weighted.
type PerformanceMode string

const (
	ModeFast     PerformanceMode = "fast"
	ModeBalanced PerformanceMode = "balanced"
	ModeThorough PerformanceMode = "thorough"
)

// Valid reports whether the mode is one of the known policies.
func (m PerformanceMode) Valid() bool {
	switch m {
	case ModeFast, ModeBalanced, ModeThorough:
		return true
	}
	return false
}

// DomainFocus is an optional vertical-specific reweighting applied before aggregation.
type DomainFocus string

const (
	FocusNone             DomainFocus = ""
	FocusBankingInsurance DomainFocus = "banking_insurance"
)

// Valid reports whether the focus is known (empty means no focus).
func (f DomainFocus) Valid() bool {
	return f == FocusNone || f == FocusBankingInsurance
}

// ScoringConfig carries the externally tunable knobs for one scoring call.
type ScoringConfig struct {
	PerformanceMode PerformanceMode
	DomainFocus     DomainFocus
	UseCache        bool
}

// ScoringRequest is the immutable input to the engine. Both texts are plain
// UTF-8; callers pre-extract them from source documents.
type ScoringRequest struct {
	RequirementText string
	CandidateText   string
	Config          ScoringConfig
}

// Signal identifies one independent scoring method.
type Signal string

const (
	SignalKeyword   Signal = "keyword"
	SignalVector    Signal = "vector"
	SignalEmbedding Signal = "embedding"
	SignalSemantic  Signal = "semantic"
)

// SignalBreakdown maps each signal that ran to its score in [0,100].
// Signals skipped by the performance mode or lost to provider degradation are
// simply absent; the aggregator redistributes their weight.
type SignalBreakdown map[Signal]float64

// Clone returns an independent copy so cached results stay immutable.
func (b SignalBreakdown) Clone() SignalBreakdown {
	if b == nil {
		return nil
	}
	out := make(SignalBreakdown, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// QualitativeAnalysis is the structured assessment merged into a ScoringResult.
// Invariants: every SkillsAlignment entry appears (post-normalization) in both
// texts; every MissingCompetencies entry appears in the requirement text only.
type QualitativeAnalysis struct {
	Strengths             []string
	Weaknesses            []string
	Recommendations       []string
	SkillsAlignment       []string
	MissingCompetencies   []string
	DetailedJustification string
}

// ScoringResult is the engine's sole output type.
type ScoringResult struct {
	FinalScore int
	Breakdown  SignalBreakdown
	Analysis   QualitativeAnalysis
	FromCache  bool
}

// CacheEntry is owned exclusively by the result cache; no other component
// mutates it. Replacement on recomputation is atomic.
type CacheEntry struct {
	Fingerprint string
	Result      ScoringResult
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// AIClient (port)

type AIClient interface {
	// Embed returns dense embedding vectors for texts; deterministic in stub mode.
	Embed(ctx Context, texts []string) ([][]float32, error)
	// ChatJSON returns a JSON string strictly matching the schema described in
	// the prompts; deterministic in stub mode.
	ChatJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Context is an alias so adapters and usecases pass context.Context through
// without the domain package re-exporting stdlib types everywhere.
type Context = context.Context
