// Package tokenizer normalizes raw text into the lowercase, whitespace
// separated token stream the vocabulary and dataset builders consume.
// Punctuation handling is configurable per tokenizer.
package tokenizer
