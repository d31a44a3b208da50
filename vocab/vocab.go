package vocab

import "fmt"

// UnknownTokenError reports a lookup for a token that is not part of the
// index.
type UnknownTokenError struct {
	Token string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("vocab: unknown token %q", e.Token)
}

// OutOfRangeError reports an id outside the [0, Size) range of an index.
type OutOfRangeError struct {
	ID   int
	Size int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("vocab: id %d out of range [0, %d)", e.ID, e.Size)
}

// Index is an immutable bijection between tokens and dense integer ids. Ids
// are assigned in order of first occurrence starting at zero, so the same
// corpus always produces the same index. An Index is safe for concurrent
// readers once built.
type Index struct {
	tokens []string
	ids    map[string]int
}

// Build scans tokens once and assigns the next free id to every token not
// seen before. An empty corpus yields a valid zero-length index.
func Build(tokens []string) *Index {
	idx := &Index{ids: make(map[string]int, len(tokens))}
	for _, tok := range tokens {
		if _, ok := idx.ids[tok]; ok {
			continue
		}
		idx.ids[tok] = len(idx.tokens)
		idx.tokens = append(idx.tokens, tok)
	}
	return idx
}

// ID returns the id assigned to token.
func (x *Index) ID(token string) (int, error) {
	id, ok := x.ids[token]
	if !ok {
		return 0, &UnknownTokenError{Token: token}
	}
	return id, nil
}

// Token returns the token assigned to id.
func (x *Index) Token(id int) (string, error) {
	if id < 0 || id >= len(x.tokens) {
		return "", &OutOfRangeError{ID: id, Size: len(x.tokens)}
	}
	return x.tokens[id], nil
}

// Has reports whether token is part of the index.
func (x *Index) Has(token string) bool {
	_, ok := x.ids[token]
	return ok
}

// Len returns the number of distinct tokens.
func (x *Index) Len() int { return len(x.tokens) }

// Tokens returns all tokens in id order. The returned slice is a copy.
func (x *Index) Tokens() []string {
	out := make([]string, len(x.tokens))
	copy(out, x.tokens)
	return out
}
