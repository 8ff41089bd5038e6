package domain

import "math"

// Vector is a fixed-dimension embedding produced by an embedding service.
// It is treated as an opaque, immutable value.
type Vector []float32

// Cosine returns the cosine similarity between a and b.
// Returns 0 for mismatched dimensions or zero-magnitude inputs.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
