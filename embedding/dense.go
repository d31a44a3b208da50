package embedding

import "fmt"

// Dense is an in-memory Table backed by a single contiguous float32 block,
// one row per id.
type Dense struct {
	dim  int
	data []float32
}

// NewDense builds a Dense table holding one vector per id. All vectors must
// share the same length; like mat.NewDense, ragged or zero-width input
// panics since it is always a programming error.
func NewDense(vectors [][]float32) *Dense {
	if len(vectors) == 0 {
		return &Dense{}
	}
	dim := len(vectors[0])
	if dim == 0 {
		panic("embedding: zero-dimension vectors")
	}
	d := &Dense{dim: dim, data: make([]float32, 0, dim*len(vectors))}
	for i, vec := range vectors {
		if len(vec) != dim {
			panic(fmt.Sprintf("embedding: vector %d has dim %d, want %d", i, len(vec), dim))
		}
		d.data = append(d.data, vec...)
	}
	return d
}

// Dim returns the embedding dimensionality.
func (d *Dense) Dim() int { return d.dim }

// Len returns the number of vectors.
func (d *Dense) Len() int {
	if d.dim == 0 {
		return 0
	}
	return len(d.data) / d.dim
}

// Vector returns a copy of the embedding stored for id.
func (d *Dense) Vector(id int) ([]float32, error) {
	if id < 0 || id >= d.Len() {
		return nil, fmt.Errorf("embedding: id %d out of range [0, %d)", id, d.Len())
	}
	out := make([]float32, d.dim)
	copy(out, d.data[id*d.dim:(id+1)*d.dim])
	return out, nil
}

var _ Table = (*Dense)(nil)
