package similarity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/viant/wordvec/embedding"
)

// Match pairs a table id with its cosine similarity to the query.
type Match struct {
	ID    int
	Score float64
}

// Option adjusts how candidates are selected.
type Option func(*options)

type options struct {
	includeSelf bool
	excluded    map[int]struct{}
}

// WithSelf keeps the query row itself among the candidates of MostSimilar.
// By default the query id is excluded, since its self-similarity of 1.0
// carries no information.
func WithSelf() Option {
	return func(o *options) { o.includeSelf = true }
}

// WithExcluded removes the given ids from the candidate set.
func WithExcluded(ids ...int) Option {
	return func(o *options) {
		if o.excluded == nil {
			o.excluded = make(map[int]struct{}, len(ids))
		}
		for _, id := range ids {
			o.excluded[id] = struct{}{}
		}
	}
}

// Nearest ranks every table row by cosine similarity to query, descending,
// ties broken by ascending id, and returns the top k; k <= 0 or k beyond
// the candidate count returns all candidates. A zero-magnitude query or
// table row yields a ZeroVectorError.
func Nearest(t embedding.Table, query []float32, k int, opts ...Option) ([]Match, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return nearest(t, query, k, -1, &o)
}

// MostSimilar ranks table rows against the row stored for id. The query row
// itself is excluded unless WithSelf is supplied; when included it ranks
// first with similarity 1.0.
func MostSimilar(t embedding.Table, id, k int, opts ...Option) ([]Match, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	query, err := t.Vector(id)
	if err != nil {
		return nil, err
	}
	return nearest(t, query, k, id, &o)
}

// Analogy answers "a is to b as ? is to c": it forms row(a) - row(b) +
// row(c) and returns the best-ranked remaining row. The ids a, b and c are
// never candidates, however close they sit to the query point.
func Analogy(t embedding.Table, a, b, c int) (Match, error) {
	va, err := t.Vector(a)
	if err != nil {
		return Match{}, err
	}
	vb, err := t.Vector(b)
	if err != nil {
		return Match{}, err
	}
	vc, err := t.Vector(c)
	if err != nil {
		return Match{}, err
	}
	query := make([]float32, len(va))
	for i := range query {
		query[i] = va[i] - vb[i] + vc[i]
	}
	matches, err := Nearest(t, query, 1, WithExcluded(a, b, c))
	if err != nil {
		return Match{}, err
	}
	if len(matches) == 0 {
		return Match{}, fmt.Errorf("similarity: analogy over %d rows leaves no candidates", t.Len())
	}
	return matches[0], nil
}

// nearest scans the whole table. selfID < 0 marks an ad-hoc query with no
// row of its own.
func nearest(t embedding.Table, query []float32, k, selfID int, o *options) ([]Match, error) {
	if len(query) != t.Dim() && t.Len() > 0 {
		return nil, fmt.Errorf("similarity: query dim %d does not match table dim %d", len(query), t.Dim())
	}
	if embedding.Magnitude(query) == 0 {
		return nil, &embedding.ZeroVectorError{ID: selfID}
	}
	matches := make([]Match, 0, t.Len())
	for id := 0; id < t.Len(); id++ {
		if id == selfID && !o.includeSelf {
			continue
		}
		if _, skip := o.excluded[id]; skip {
			continue
		}
		row, err := t.Vector(id)
		if err != nil {
			return nil, err
		}
		score, err := embedding.CosineSimilarity(query, row)
		if err != nil {
			var zero *embedding.ZeroVectorError
			if errors.As(err, &zero) {
				return nil, &embedding.ZeroVectorError{ID: id}
			}
			return nil, err
		}
		matches = append(matches, Match{ID: id, Score: score})
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].ID < matches[b].ID
	})
	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}
