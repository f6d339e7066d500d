// Package vector scores documents by cosine similarity of term-frequency
// vectors over their shared vocabulary.
package vector

import "math"

// Score builds term-frequency vectors for both term sequences over the union
// vocabulary and returns cosine similarity scaled to [0,100]. Either sequence
// empty yields 0: cosine is undefined at the zero vector and must not produce
// NaN.
func Score(reqTerms, candTerms []string) float64 {
	if len(reqTerms) == 0 || len(candTerms) == 0 {
		return 0
	}
	reqFreq := termFreq(reqTerms)
	candFreq := termFreq(candTerms)

	var dot, normReq, normCand float64
	for term, rf := range reqFreq {
		dot += rf * candFreq[term]
		normReq += rf * rf
	}
	for _, cf := range candFreq {
		normCand += cf * cf
	}
	if normReq == 0 || normCand == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normReq) * math.Sqrt(normCand))
	return math.Round(clamp01(sim) * 100)
}

// Cosine32 computes cosine similarity between two dense float32 vectors,
// guarding the zero-vector and dimension-mismatch cases with 0.
func Cosine32(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func termFreq(terms []string) map[string]float64 {
	freq := make(map[string]float64, len(terms))
	for _, t := range terms {
		freq[t]++
	}
	return freq
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
