package similarity

import "github.com/viant/wordvec/embedding"

// Lexicon resolves tokens to table ids and back. Both the in-memory
// vocabulary index and the SQLite-backed store satisfy it.
type Lexicon interface {
	ID(token string) (int, error)
	Token(id int) (string, error)
}

// WordMatch pairs a word with its similarity score.
type WordMatch struct {
	Word  string
	Score float64
}

// Words runs the engine at the word level by pairing an embedding table
// with the lexicon that names its rows.
type Words struct {
	Table   embedding.Table
	Lexicon Lexicon
}

// MostSimilar returns up to k words ranked by similarity to word.
func (w Words) MostSimilar(word string, k int, opts ...Option) ([]WordMatch, error) {
	id, err := w.Lexicon.ID(word)
	if err != nil {
		return nil, err
	}
	matches, err := MostSimilar(w.Table, id, k, opts...)
	if err != nil {
		return nil, err
	}
	return w.resolve(matches)
}

// Nearest returns up to k words ranked by similarity to an ad-hoc query
// vector.
func (w Words) Nearest(query []float32, k int, opts ...Option) ([]WordMatch, error) {
	matches, err := Nearest(w.Table, query, k, opts...)
	if err != nil {
		return nil, err
	}
	return w.resolve(matches)
}

// Analogy answers "a is to b as ? is to c" at the word level.
func (w Words) Analogy(a, b, c string) (WordMatch, error) {
	ida, err := w.Lexicon.ID(a)
	if err != nil {
		return WordMatch{}, err
	}
	idb, err := w.Lexicon.ID(b)
	if err != nil {
		return WordMatch{}, err
	}
	idc, err := w.Lexicon.ID(c)
	if err != nil {
		return WordMatch{}, err
	}
	m, err := Analogy(w.Table, ida, idb, idc)
	if err != nil {
		return WordMatch{}, err
	}
	word, err := w.Lexicon.Token(m.ID)
	if err != nil {
		return WordMatch{}, err
	}
	return WordMatch{Word: word, Score: m.Score}, nil
}

func (w Words) resolve(matches []Match) ([]WordMatch, error) {
	out := make([]WordMatch, len(matches))
	for i, m := range matches {
		word, err := w.Lexicon.Token(m.ID)
		if err != nil {
			return nil, err
		}
		out[i] = WordMatch{Word: word, Score: m.Score}
	}
	return out, nil
}
