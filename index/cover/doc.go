// Package cover provides a cover-tree vector index for larger embedding
// tables, pruning kNN searches with per-node or per-level radius bounds.
// It persists in the shared entry format prefixed with a magic tag, and is
// rebuilt from the flat entries on load.
package cover
