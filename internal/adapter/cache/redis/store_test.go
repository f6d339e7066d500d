package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/matchengine/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStoreWithClient(client), mr
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	res := domain.ScoringResult{
		FinalScore: 67,
		Breakdown: domain.SignalBreakdown{
			domain.SignalKeyword: 70,
			domain.SignalVector:  62,
		},
		Analysis: domain.QualitativeAnalysis{
			SkillsAlignment:       []string{"react"},
			DetailedJustification: "solid frontend overlap",
		},
	}
	require.NoError(t, s.Set(ctx, "fp1", res, time.Minute))

	got, ok, err := s.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 67, got.FinalScore)
	assert.Equal(t, float64(70), got.Breakdown[domain.SignalKeyword])
	assert.Equal(t, []string{"react"}, got.Analysis.SkillsAlignment)
}

func TestStoreMiss(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	_, ok, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreTTLExpiry(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "fp1", domain.ScoringResult{FinalScore: 10}, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, ok, err := s.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreCorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("match:result:fp1", "{not json"))

	_, ok, err := s.Get(context.Background(), "fp1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePing(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
