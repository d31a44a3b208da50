// Package dataset turns a token stream into supervised training examples
// for the context-to-word classifier: a symmetric window slides over the
// corpus, and every window becomes one presence-encoded feature row labeled
// with the id of its center token.
package dataset
