package embedding

// Table exposes read access to fixed-dimension embedding vectors addressed
// by dense ids in [0, Len()). Trained models and durable vector stores both
// satisfy it, so ranking code works against either without caring where the
// vectors came from.
type Table interface {
	// Dim returns the embedding dimensionality.
	Dim() int

	// Len returns the number of vectors.
	Len() int

	// Vector returns the embedding for id. Implementations return a copy;
	// callers may mutate the result freely.
	Vector(id int) ([]float32, error)
}
