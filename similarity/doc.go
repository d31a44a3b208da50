// Package similarity ranks embedding-table rows by cosine similarity. The
// strict engine semantics live here: results order by descending score with
// ties broken by ascending id, the query row is excluded by default, and
// zero-magnitude vectors surface as typed errors instead of silent NaN
// scores. Words adapts the id-level engine to word queries through a
// Lexicon.
package similarity
