// internal/similarity/similarity.go
// Package similarity computes cosine similarity between embedding vectors.
package similarity

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when the two vectors have different lengths.
var ErrDimensionMismatch = errors.New("embedding vectors have different dimensions")

// ErrDegenerateVector is returned when a vector has an exactly zero norm.
// Embedding providers should never emit these, so a caller should treat it
// as a data-quality failure rather than retry.
var ErrDegenerateVector = errors.New("embedding vector has zero norm")

// Cosine returns the cosine similarity of two equal-length vectors,
// clamped to [-1, 1] so floating-point overshoot never reaches the
// correlation and t-test code downstream.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrDegenerateVector)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return Clamp(sim), nil
}

// Clamp bounds a similarity value to the mathematically valid [-1, 1] range.
func Clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
