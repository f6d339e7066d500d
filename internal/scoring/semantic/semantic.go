// Package semantic produces the qualitative LLM assessment of a
// requirement/candidate pair and the semantic score derived from it.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hirelens/matchengine/internal/adapter/ai"
	"github.com/hirelens/matchengine/internal/adapter/ai/tokencount"
	"github.com/hirelens/matchengine/internal/domain"
)

const (
	// inputTokenBudget caps each input text so both fit comfortably in the
	// context window of small chat models.
	inputTokenBudget = 6000

	maxListEntries = 5
)

// Analyzer runs the chat model and turns its JSON answer into a
// domain.QualitativeAnalysis plus a 0-100 semantic score.
type Analyzer struct {
	ai        domain.AIClient
	cleaner   *ai.ResponseCleaner
	counter   *tokencount.Counter
	model     string
	timeout   time.Duration
	maxTokens int
}

// NewAnalyzer creates a semantic analyzer. model is only used for token
// counting; the chat client carries its own model configuration.
func NewAnalyzer(client domain.AIClient, model string, timeout time.Duration, maxTokens int) *Analyzer {
	return &Analyzer{
		ai:        client,
		cleaner:   ai.NewResponseCleaner(),
		counter:   tokencount.NewCounter(),
		model:     model,
		timeout:   timeout,
		maxTokens: maxTokens,
	}
}

// analysisPayload mirrors the JSON schema the prompts demand.
type analysisPayload struct {
	MatchScore            float64  `json:"match_score"`
	Strengths             []string `json:"strengths"`
	Weaknesses            []string `json:"weaknesses"`
	Recommendations       []string `json:"recommendations"`
	SkillsAlignment       []string `json:"skills_alignment"`
	MissingCompetencies   []string `json:"missing_competencies"`
	DetailedJustification string   `json:"detailed_justification"`
}

// Analyze assesses how well candidateText satisfies requirementText. A
// malformed model response is retried once with a corrective instruction; a
// second failure returns domain.ErrSemanticAnalysis. The configured timeout
// covers both attempts.
func (a *Analyzer) Analyze(ctx context.Context, requirementText, candidateText string, focus domain.DomainFocus) (domain.QualitativeAnalysis, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := a.counter.TruncateToTokens(requirementText, a.model, inputTokenBudget)
	cand := a.counter.TruncateToTokens(candidateText, a.model, inputTokenBudget)
	userPrompt := buildUserPrompt(req, cand, focus)

	payload, err := a.attempt(ctx, userPrompt)
	if err != nil {
		if ctx.Err() != nil {
			return domain.QualitativeAnalysis{}, 0, fmt.Errorf("%w: %v", domain.ErrSemanticAnalysis, ctx.Err())
		}
		slog.Warn("semantic analysis attempt failed, retrying with corrective instruction",
			slog.Any("error", err))
		payload, err = a.attempt(ctx, userPrompt+"\n\n"+correctiveInstruction)
		if err != nil {
			return domain.QualitativeAnalysis{}, 0, fmt.Errorf("%w: %v", domain.ErrSemanticAnalysis, err)
		}
	}

	score := math.Round(payload.MatchScore)
	analysis := domain.QualitativeAnalysis{
		Strengths:             capList(payload.Strengths),
		Weaknesses:            capList(payload.Weaknesses),
		Recommendations:       capList(payload.Recommendations),
		SkillsAlignment:       payload.SkillsAlignment,
		MissingCompetencies:   payload.MissingCompetencies,
		DetailedJustification: payload.DetailedJustification,
	}
	return analysis, score, nil
}

func (a *Analyzer) attempt(ctx context.Context, userPrompt string) (analysisPayload, error) {
	var payload analysisPayload

	raw, err := a.ai.ChatJSON(ctx, systemPrompt, userPrompt, a.maxTokens)
	if err != nil {
		return payload, fmt.Errorf("chat completion: %w", err)
	}

	cleaned, err := a.cleaner.CleanAndValidateJSON(raw)
	if err != nil {
		return payload, fmt.Errorf("clean response: %w", err)
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return payload, fmt.Errorf("decode response: %w", err)
	}
	if err := validatePayload(payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// validatePayload enforces the schema bounds before the result is trusted.
func validatePayload(p analysisPayload) error {
	if p.MatchScore < 0 || p.MatchScore > 100 {
		return fmt.Errorf("%w: match_score %.1f out of range", domain.ErrSchemaInvalid, p.MatchScore)
	}
	if p.DetailedJustification == "" {
		return fmt.Errorf("%w: empty detailed_justification", domain.ErrSchemaInvalid)
	}
	return nil
}

func capList(items []string) []string {
	if len(items) > maxListEntries {
		return items[:maxListEntries]
	}
	return items
}
