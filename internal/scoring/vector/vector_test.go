package vector_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hirelens/matchengine/internal/scoring/vector"
)

func TestScore_IdenticalDocuments(t *testing.T) {
	t.Parallel()
	terms := []string{"react", "node", "typescript"}
	assert.Equal(t, 100.0, vector.Score(terms, terms))
}

func TestScore_DisjointDocuments(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, vector.Score([]string{"react", "node"}, []string{"cobol", "fortran"}))
}

func TestScore_PartialOverlap(t *testing.T) {
	t.Parallel()
	s := vector.Score([]string{"react", "node"}, []string{"react", "cobol"})
	assert.Greater(t, s, 0.0)
	assert.Less(t, s, 100.0)
	assert.False(t, math.IsNaN(s))
}

func TestScore_ZeroVectorGuard(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, vector.Score(nil, []string{"react"}))
	assert.Equal(t, 0.0, vector.Score([]string{"react"}, nil))
	assert.Equal(t, 0.0, vector.Score(nil, nil))
}

func TestScore_TermFrequencyWeighting(t *testing.T) {
	t.Parallel()
	// Repeated shared terms pull similarity higher than a single mention.
	single := vector.Score([]string{"react", "go"}, []string{"react", "java", "php"})
	repeated := vector.Score([]string{"react", "react", "react", "go"}, []string{"react", "react", "java"})
	assert.Greater(t, repeated, single)
}

func TestCosine32(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 1.0, vector.Cosine32([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, vector.Cosine32([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, vector.Cosine32([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, vector.Cosine32([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, vector.Cosine32(nil, nil))
}
