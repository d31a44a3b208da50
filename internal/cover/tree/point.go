package tree

// Point represents a stored vector in the cover tree, tagged with the
// embedding-table id it came from.
type Point struct {
	ID        int32
	Magnitude float32
	Vector    []float32
}

// NewPoint constructs a point for the given id and vector. The magnitude
// is filled in on insert when left zero.
func NewPoint(id int32, vector []float32) *Point {
	return &Point{ID: id, Vector: vector}
}
