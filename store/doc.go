// Package store persists word vectors in SQLite and exposes them through
// the same Table and Lexicon contracts as an in-memory vocabulary and
// embedding table, so similarity ranking runs unchanged against durable
// data.
//
// Words receive dense 0-based ids in insertion order, pretrained vectors
// load through Add or ImportText, and the vec_cosine and vec_l2 scalar
// functions are registered with the driver so small corpora rank directly
// in SQL. Larger corpora go through a kNN index that is built once,
// serialized into the vector_index table, and dropped on every write.
// Single-row lookups (ID, Token, Vector) run without contexts to satisfy
// the in-memory contracts; batch and search operations take a
// context.Context.
package store
