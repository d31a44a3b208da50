package index

import "github.com/viant/wordvec/embedding"

// Index is a k-nearest-neighbour index over an embedding table with basic
// lifecycle methods: building from a table snapshot, kNN queries, and
// binary serialization for persistence.
//
// Unlike the strict ranking engine, an index skips zero-magnitude rows at
// build time: cosine ranking is undefined for them, and a durable store may
// legitimately contain such padding rows.
type Index interface {
	// Build constructs the index from a snapshot of t.
	Build(t embedding.Table) error

	// Query runs a kNN search with the provided query vector and returns up
	// to k matches as parallel slices of table ids and scores, where a
	// higher score means more similar (cosine similarity). Equal scores
	// order by ascending id. A zero-magnitude query is an error.
	Query(query []float32, k int) (ids []int, scores []float64, err error)

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}
