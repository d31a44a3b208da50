// Package bruteforce provides the baseline vector index: kNN queries are
// answered by scanning every entry and scoring with cosine similarity. It
// also defines the binary entry format shared by every index persisted in
// the vector_index table.
package bruteforce
