package embedding

import (
	"fmt"
	"math"
)

// ZeroVectorError reports a cosine computation against a zero-magnitude
// vector, for which similarity is undefined. ID is the table row that was
// degenerate, or -1 when the offending vector was an ad-hoc query.
type ZeroVectorError struct {
	ID int
}

func (e *ZeroVectorError) Error() string {
	if e.ID < 0 {
		return "embedding: cosine similarity with zero-magnitude query vector"
	}
	return fmt.Sprintf("embedding: cosine similarity with zero-magnitude vector %d", e.ID)
}

// CosineSimilarity computes the cosine similarity between two vectors. It
// returns an error if the vectors have different lengths and a
// ZeroVectorError if either vector has zero magnitude; callers never see a
// silent NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding: cosine similarity dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("embedding: cosine similarity on empty vectors")
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, &ZeroVectorError{ID: -1}
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// L2Distance computes the Euclidean (L2) distance between two vectors. It
// returns an error if the vectors have different lengths.
func L2Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding: L2 distance dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Magnitude returns the Euclidean norm of v in float64 precision.
func Magnitude(v []float32) float64 {
	var s float64
	for i := range v {
		f := float64(v[i])
		s += f * f
	}
	return math.Sqrt(s)
}
