package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/matchengine/internal/domain"
)

func TestWeightsFullBreakdown(t *testing.T) {
	t.Parallel()

	b := domain.SignalBreakdown{
		domain.SignalKeyword:   80,
		domain.SignalVector:    60,
		domain.SignalEmbedding: 70,
		domain.SignalSemantic:  65,
	}
	w := Weights(domain.ModeBalanced, b)
	require.Len(t, w, 4)
	assert.InDelta(t, 0.35, w[domain.SignalKeyword], 1e-9)
	assert.InDelta(t, 0.15, w[domain.SignalSemantic], 1e-9)

	var sum float64
	for _, v := range w {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestWeightsRedistributeOnMissingSignal(t *testing.T) {
	t.Parallel()

	// Embedding degraded away in balanced mode: 0.35/0.25/0.15 renormalized
	// over a 0.75 total.
	b := domain.SignalBreakdown{
		domain.SignalKeyword:  80,
		domain.SignalVector:   60,
		domain.SignalSemantic: 65,
	}
	w := Weights(domain.ModeBalanced, b)
	assert.InDelta(t, 0.35/0.75, w[domain.SignalKeyword], 1e-9)
	assert.InDelta(t, 0.25/0.75, w[domain.SignalVector], 1e-9)
	assert.InDelta(t, 0.15/0.75, w[domain.SignalSemantic], 1e-9)
}

func TestFinalScoreFastMode(t *testing.T) {
	t.Parallel()

	b := domain.SignalBreakdown{
		domain.SignalKeyword: 70,
		domain.SignalVector:  50,
	}
	// 0.6*70 + 0.4*50 = 62
	assert.Equal(t, 62, FinalScore(domain.ModeFast, b))
}

func TestFinalScoreSingleSignalGetsFullWeight(t *testing.T) {
	t.Parallel()

	b := domain.SignalBreakdown{domain.SignalKeyword: 73}
	assert.Equal(t, 73, FinalScore(domain.ModeThorough, b))
}

func TestFinalScoreEmptyBreakdown(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, FinalScore(domain.ModeBalanced, domain.SignalBreakdown{}))
	assert.Equal(t, 0, FinalScore(domain.ModeBalanced, nil))
}

func TestFinalScoreBounds(t *testing.T) {
	t.Parallel()

	b := domain.SignalBreakdown{
		domain.SignalKeyword: 100,
		domain.SignalVector:  100,
	}
	assert.Equal(t, 100, FinalScore(domain.ModeFast, b))

	b = domain.SignalBreakdown{
		domain.SignalKeyword: 0,
		domain.SignalVector:  0,
	}
	assert.Equal(t, 0, FinalScore(domain.ModeFast, b))
}

func TestAdjustBoostsKeywordForBankingSkills(t *testing.T) {
	t.Parallel()

	b := domain.SignalBreakdown{domain.SignalKeyword: 60, domain.SignalVector: 40}
	Adjust(b, domain.FocusBankingInsurance, []string{"kyc", "react"})
	// 60 * 1.15 = 69
	assert.Equal(t, float64(69), b[domain.SignalKeyword])
	assert.Equal(t, float64(40), b[domain.SignalVector])
}

func TestAdjustCapsAtHundred(t *testing.T) {
	t.Parallel()

	b := domain.SignalBreakdown{domain.SignalKeyword: 95}
	Adjust(b, domain.FocusBankingInsurance, []string{"compliance"})
	assert.Equal(t, float64(100), b[domain.SignalKeyword])
}

func TestAdjustNoOpWithoutFocus(t *testing.T) {
	t.Parallel()

	b := domain.SignalBreakdown{domain.SignalKeyword: 60}
	Adjust(b, domain.FocusNone, []string{"kyc"})
	assert.Equal(t, float64(60), b[domain.SignalKeyword])
}

func TestAdjustNoOpWithoutBoostableMatch(t *testing.T) {
	t.Parallel()

	b := domain.SignalBreakdown{domain.SignalKeyword: 60}
	Adjust(b, domain.FocusBankingInsurance, []string{"react", "node"})
	assert.Equal(t, float64(60), b[domain.SignalKeyword])
}

func TestAdjustNoOpWhenKeywordAbsent(t *testing.T) {
	t.Parallel()

	b := domain.SignalBreakdown{domain.SignalVector: 60}
	Adjust(b, domain.FocusBankingInsurance, []string{"kyc"})
	_, ok := b[domain.SignalKeyword]
	assert.False(t, ok)
}
