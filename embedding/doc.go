// Package embedding defines the read-side contract for embedding tables and
// the vector plumbing shared across the module:
//   - Table interface and the in-memory Dense implementation
//   - cosine similarity and L2 distance in float64 precision
//   - BLOB and text codecs for vectors stored in SQLite or entered by hand
package embedding
