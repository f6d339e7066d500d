// Package usecase orchestrates the scoring pipeline: input validation,
// signal fan-out, degradation handling, aggregation and caching.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hirelens/matchengine/internal/adapter/observability"
	"github.com/hirelens/matchengine/internal/domain"
	"github.com/hirelens/matchengine/internal/scoring/aggregate"
	"github.com/hirelens/matchengine/internal/scoring/cache"
	"github.com/hirelens/matchengine/internal/scoring/keyword"
	"github.com/hirelens/matchengine/internal/scoring/textproc"
	"github.com/hirelens/matchengine/internal/scoring/vector"
)

// EmbeddingScorer rates text-pair similarity via dense embeddings.
type EmbeddingScorer interface {
	Score(ctx context.Context, requirementText, candidateText string) (float64, error)
}

// SemanticAnalyzer produces the qualitative assessment and semantic score.
type SemanticAnalyzer interface {
	Analyze(ctx context.Context, requirementText, candidateText string, focus domain.DomainFocus) (domain.QualitativeAnalysis, float64, error)
}

// ResultCache coalesces and caches full scoring results by fingerprint.
type ResultCache interface {
	GetOrCompute(ctx context.Context, fingerprint string, compute func(context.Context) (domain.ScoringResult, error)) (domain.ScoringResult, error)
}

// ScoreService is the engine's single entry point.
type ScoreService struct {
	embed    EmbeddingScorer
	semantic SemanticAnalyzer
	cache    ResultCache
}

// NewScoreService wires the orchestrator.
func NewScoreService(embed EmbeddingScorer, semantic SemanticAnalyzer, resultCache ResultCache) ScoreService {
	return ScoreService{embed: embed, semantic: semantic, cache: resultCache}
}

// CalculateHybridScore scores how well the candidate text satisfies the
// requirement text under the given configuration. Provider failures degrade
// individual signals; the only error surfaced to callers for bad requests is
// domain.ErrInvalidInput. Context cancellation is returned as-is.
func (s ScoreService) CalculateHybridScore(ctx context.Context, requirementText, candidateText string, cfg domain.ScoringConfig) (domain.ScoringResult, error) {
	if strings.TrimSpace(requirementText) == "" {
		return domain.ScoringResult{}, fmt.Errorf("%w: requirement text is empty", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(candidateText) == "" {
		return domain.ScoringResult{}, fmt.Errorf("%w: candidate text is empty", domain.ErrInvalidInput)
	}
	if cfg.PerformanceMode == "" {
		cfg.PerformanceMode = domain.ModeBalanced
	}
	if !cfg.PerformanceMode.Valid() {
		return domain.ScoringResult{}, fmt.Errorf("%w: unknown performance mode %q", domain.ErrInvalidInput, cfg.PerformanceMode)
	}
	if !cfg.DomainFocus.Valid() {
		return domain.ScoringResult{}, fmt.Errorf("%w: unknown domain focus %q", domain.ErrInvalidInput, cfg.DomainFocus)
	}

	reqTerms := textproc.Normalize(requirementText)
	candTerms := textproc.Normalize(candidateText)

	compute := func(ctx context.Context) (domain.ScoringResult, error) {
		return s.compute(ctx, requirementText, candidateText, reqTerms, candTerms, cfg)
	}

	if !cfg.UseCache || s.cache == nil {
		return compute(ctx)
	}
	fp := cache.Fingerprint(textproc.Joined(reqTerms), textproc.Joined(candTerms), cfg)
	return s.cache.GetOrCompute(ctx, fp, compute)
}

func (s ScoreService) compute(ctx context.Context, requirementText, candidateText string, reqTerms, candTerms []string, cfg domain.ScoringConfig) (domain.ScoringResult, error) {
	extracted := keyword.ExtractSkills(requirementText)
	kw := keyword.Score(reqTerms, candTerms, extracted.Required, extracted.Preferred)

	breakdown := domain.SignalBreakdown{
		domain.SignalKeyword: kw.Score,
		domain.SignalVector:  vector.Score(reqTerms, candTerms),
	}

	var (
		analysis    domain.QualitativeAnalysis
		haveSemAnal bool
	)

	if cfg.PerformanceMode != domain.ModeFast {
		var (
			embScore float64
			embErr   error
			semScore float64
			semErr   error
		)
		// Signal failures must not cancel the sibling, so errors stay local
		// to each goroutine.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			embScore, embErr = s.embed.Score(gctx, requirementText, candidateText)
			return nil
		})
		g.Go(func() error {
			analysis, semScore, semErr = s.semantic.Analyze(gctx, requirementText, candidateText, cfg.DomainFocus)
			return nil
		})
		_ = g.Wait()

		if embErr != nil {
			observability.RecordSignalUnavailable(string(domain.SignalEmbedding))
			slog.Warn("embedding signal unavailable", slog.Any("error", embErr))
		} else {
			breakdown[domain.SignalEmbedding] = embScore
		}
		if semErr != nil {
			observability.RecordSignalUnavailable(string(domain.SignalSemantic))
			slog.Warn("semantic signal unavailable", slog.Any("error", semErr))
			if errors.Is(semErr, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return domain.ScoringResult{}, ctx.Err()
			}
		} else {
			breakdown[domain.SignalSemantic] = semScore
			haveSemAnal = true
		}
	}

	aggregate.Adjust(breakdown, cfg.DomainFocus, kw.Matched)
	final := aggregate.FinalScore(cfg.PerformanceMode, breakdown)

	if haveSemAnal {
		analysis.SkillsAlignment = verifiedAlignment(analysis.SkillsAlignment, kw.Matched, reqTerms, candTerms)
		analysis.MissingCompetencies = verifiedMissing(analysis.MissingCompetencies, kw.Missing, reqTerms, candTerms)
	} else {
		analysis = fallbackAnalysis(kw)
	}

	observability.ObserveMatchScore(string(cfg.PerformanceMode), final)
	return domain.ScoringResult{
		FinalScore: final,
		Breakdown:  breakdown,
		Analysis:   analysis,
	}, nil
}

// verifiedAlignment keeps only model-claimed skills that actually appear in
// both texts, then unions in the lexically matched skills. The result is
// sorted and de-duplicated.
func verifiedAlignment(claimed, matched []string, reqTerms, candTerms []string) []string {
	out := map[string]struct{}{}
	for _, skill := range claimed {
		form := textproc.NormalizeToken(skill)
		if form == "" {
			continue
		}
		if keyword.Mentions(form, reqTerms) && keyword.Mentions(form, candTerms) {
			out[form] = struct{}{}
		}
	}
	for _, skill := range matched {
		out[skill] = struct{}{}
	}
	return sortedKeys(out)
}

// verifiedMissing keeps model-claimed gaps that appear in the requirement but
// not in the candidate, unioned with the lexically missing skills.
func verifiedMissing(claimed, missing []string, reqTerms, candTerms []string) []string {
	out := map[string]struct{}{}
	for _, skill := range claimed {
		form := textproc.NormalizeToken(skill)
		if form == "" {
			continue
		}
		if keyword.Mentions(form, reqTerms) && !keyword.Mentions(form, candTerms) {
			out[form] = struct{}{}
		}
	}
	for _, skill := range missing {
		out[skill] = struct{}{}
	}
	return sortedKeys(out)
}

// fallbackAnalysis is used in fast mode and when the semantic signal
// degrades: alignment comes from lexical matching alone.
func fallbackAnalysis(kw keyword.Result) domain.QualitativeAnalysis {
	justification := "Assessment based on lexical and statistical matching of the provided texts."
	if len(kw.Matched) > 0 {
		justification = fmt.Sprintf(
			"Assessment based on lexical and statistical matching: the candidate covers %d of %d identified skills.",
			len(kw.Matched), len(kw.Matched)+len(kw.Missing))
	}
	return domain.QualitativeAnalysis{
		SkillsAlignment:       append([]string(nil), kw.Matched...),
		MissingCompetencies:   append([]string(nil), kw.Missing...),
		DetailedJustification: justification,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
