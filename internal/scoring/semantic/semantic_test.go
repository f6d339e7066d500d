package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/matchengine/internal/domain"
)

type fakeChat struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeChat) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeChat) ChatJSON(_ context.Context, _ string, userPrompt string, _ int) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, userPrompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no response configured")
}

const goodResponse = `{
	"match_score": 72,
	"strengths": ["Strong React background"],
	"weaknesses": ["No TypeScript mentioned"],
	"recommendations": ["Ask about TypeScript exposure"],
	"skills_alignment": ["react"],
	"missing_competencies": ["typescript"],
	"detailed_justification": "The candidate covers the core frontend stack but not the typed tooling."
}`

func newTestAnalyzer(client domain.AIClient) *Analyzer {
	return NewAnalyzer(client, "openai/gpt-4o-mini", 5*time.Second, 1200)
}

func TestAnalyzeSuccess(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{responses: []string{goodResponse}}
	analysis, score, err := newTestAnalyzer(chat).Analyze(context.Background(),
		"Senior React developer", "5 years React experience", domain.FocusNone)
	require.NoError(t, err)

	assert.Equal(t, float64(72), score)
	assert.Equal(t, []string{"react"}, analysis.SkillsAlignment)
	assert.Equal(t, []string{"typescript"}, analysis.MissingCompetencies)
	assert.NotEmpty(t, analysis.DetailedJustification)
	assert.Equal(t, 1, chat.calls)
}

func TestAnalyzeMarkdownFencedResponse(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{responses: []string{"```json\n" + goodResponse + "\n```"}}
	_, score, err := newTestAnalyzer(chat).Analyze(context.Background(),
		"Senior React developer", "5 years React experience", domain.FocusNone)
	require.NoError(t, err)
	assert.Equal(t, float64(72), score)
}

func TestAnalyzeRetriesOnMalformedResponse(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{responses: []string{"sorry, I cannot answer in JSON", goodResponse}}
	_, score, err := newTestAnalyzer(chat).Analyze(context.Background(),
		"Senior React developer", "5 years React experience", domain.FocusNone)
	require.NoError(t, err)

	assert.Equal(t, float64(72), score)
	require.Equal(t, 2, chat.calls)
	assert.Contains(t, chat.prompts[1], "previous response was not a valid JSON object")
}

func TestAnalyzeRetriesOnOutOfRangeScore(t *testing.T) {
	t.Parallel()

	bad := `{"match_score": 140, "detailed_justification": "way too enthusiastic"}`
	chat := &fakeChat{responses: []string{bad, goodResponse}}
	_, score, err := newTestAnalyzer(chat).Analyze(context.Background(),
		"Senior React developer", "5 years React experience", domain.FocusNone)
	require.NoError(t, err)
	assert.Equal(t, float64(72), score)
}

func TestAnalyzeFailsAfterTwoMalformedResponses(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{responses: []string{"not json", "still not json"}}
	_, _, err := newTestAnalyzer(chat).Analyze(context.Background(),
		"Senior React developer", "5 years React experience", domain.FocusNone)
	require.ErrorIs(t, err, domain.ErrSemanticAnalysis)
	assert.Equal(t, 2, chat.calls)
}

func TestAnalyzeProviderError(t *testing.T) {
	t.Parallel()

	upstream := errors.New("upstream exploded")
	chat := &fakeChat{errs: []error{upstream, upstream}}
	_, _, err := newTestAnalyzer(chat).Analyze(context.Background(),
		"Senior React developer", "5 years React experience", domain.FocusNone)
	require.ErrorIs(t, err, domain.ErrSemanticAnalysis)
}

func TestAnalyzeBankingFocusShapesPrompt(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{responses: []string{goodResponse}}
	_, _, err := newTestAnalyzer(chat).Analyze(context.Background(),
		"Compliance officer with KYC experience", "7 years AML and KYC work",
		domain.FocusBankingInsurance)
	require.NoError(t, err)
	assert.Contains(t, chat.prompts[0], "banking and insurance sector")
}

func TestAnalyzeCapsLongLists(t *testing.T) {
	t.Parallel()

	long := `{"match_score": 50, "strengths": ["a","b","c","d","e","f","g"], "detailed_justification": "ok"}`
	chat := &fakeChat{responses: []string{long}}
	analysis, _, err := newTestAnalyzer(chat).Analyze(context.Background(),
		"req", "cand", domain.FocusNone)
	require.NoError(t, err)
	assert.Len(t, analysis.Strengths, 5)
	assert.False(t, strings.Contains(strings.Join(analysis.Strengths, ","), "f"))
}
