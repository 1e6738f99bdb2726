package embedding

import (
	"context"
	"math"
)

// EmbeddingProvider turns text into a fixed-length vector. Implementations
// must return unit-length vectors so cosine similarity in the index is
// meaningful.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NormalizeVector scales a vector to unit length (magnitude = 1). Cosine
// distance in the index assumes normalized vectors.
func NormalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
