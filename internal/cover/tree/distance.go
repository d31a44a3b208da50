package tree

import "github.com/viant/vec/search"

// DistanceFunction enumerates supported distance metrics for the cover tree.
type DistanceFunction string

const (
	DistanceFunctionCosine    DistanceFunction = "cosine"
	DistanceFunctionEuclidean DistanceFunction = "euclidean"
)

// DistanceFunc computes the distance between two points.
type DistanceFunc func(p1, p2 *Point) float32

// Function resolves the callable distance implementation.
func (d DistanceFunction) Function() DistanceFunc {
	switch d {
	case DistanceFunctionCosine:
		return CosineDistance
	case DistanceFunctionEuclidean:
		return EuclideanDistance
	default:
		return nil
	}
}

// CosineDistance returns the cosine distance (1 - cosine similarity)
// between two points. Stored points carry a precomputed magnitude; ad-hoc
// query points compute theirs on the fly.
func CosineDistance(p1, p2 *Point) float32 {
	return search.Float32s(p1.Vector).CosineDistanceWithMagnitudesNeon(p2.Vector, magnitudeOf(p1), magnitudeOf(p2))
}

// EuclideanDistance returns the Euclidean distance between two points.
func EuclideanDistance(p1, p2 *Point) float32 {
	return search.Float32s(p1.Vector).EuclideanDistance(p2.Vector)
}

func magnitudeOf(p *Point) float32 {
	if p.Magnitude != 0 {
		return p.Magnitude
	}
	return search.Float32s(p.Vector).Magnitude()
}
