// Package index defines a minimal abstraction for k-nearest-neighbour
// indexes built over embedding tables: construction from a table snapshot,
// kNN queries scored by cosine similarity, and binary serialization so a
// built index can persist alongside its vectors. Implementations in this
// module are a brute-force baseline and a cover tree.
package index
