package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/viant/wordvec/vocab"
)

// ConfigError reports an invalid builder parameter.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "dataset: " + e.Reason }

// Window pairs the 2*windowSize context tokens around a center position
// with the token at that position. Context tokens keep document order; the
// center itself is excluded.
type Window struct {
	Context []string
	Target  string
}

// Windows slides a symmetric window over tokens. Centers range over the
// positions [windowSize, len(tokens)-windowSize), so the result holds
// exactly max(0, len(tokens)-2*windowSize) windows; a corpus shorter than
// 2*windowSize+1 yields none, which is not an error by itself.
func Windows(tokens []string, windowSize int) ([]Window, error) {
	if windowSize <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("window size must be positive, got %d", windowSize)}
	}
	n := len(tokens) - 2*windowSize
	if n <= 0 {
		return nil, nil
	}
	out := make([]Window, 0, n)
	for center := windowSize; center < len(tokens)-windowSize; center++ {
		ctx := make([]string, 0, 2*windowSize)
		ctx = append(ctx, tokens[center-windowSize:center]...)
		ctx = append(ctx, tokens[center+1:center+windowSize+1]...)
		out = append(out, Window{Context: ctx, Target: tokens[center]})
	}
	return out, nil
}

// Set is a fully encoded training set: X holds one presence-encoded context
// row per window, Y the target id for the same row. X is nil when the
// corpus produced no windows.
type Set struct {
	X          *mat.Dense
	Y          []int
	VocabSize  int
	WindowSize int
}

// Len returns the number of examples.
func (s *Set) Len() int { return len(s.Y) }

// Encode produces one presence-encoded feature row of width vocabSize: 1 at
// every id present in contextIDs, 0 elsewhere. Repeated ids set the same
// column once; counts are not accumulated. Each id must lie in
// [0, vocabSize).
func Encode(vocabSize int, contextIDs []int) []float64 {
	row := make([]float64, vocabSize)
	for _, id := range contextIDs {
		row[id] = 1
	}
	return row
}

// Build slides the window over tokens and encodes every window against v.
// All tokens must be part of v; building over the same corpus the
// vocabulary was built from guarantees that. A short corpus yields a valid
// empty Set.
func Build(tokens []string, windowSize int, v *vocab.Index) (*Set, error) {
	windows, err := Windows(tokens, windowSize)
	if err != nil {
		return nil, err
	}
	set := &Set{VocabSize: v.Len(), WindowSize: windowSize}
	if len(windows) == 0 {
		return set, nil
	}
	contexts := make([][]int, len(windows))
	y := make([]int, len(windows))
	for i, w := range windows {
		target, err := v.ID(w.Target)
		if err != nil {
			return nil, err
		}
		y[i] = target
		ids := make([]int, len(w.Context))
		for j, tok := range w.Context {
			id, err := v.ID(tok)
			if err != nil {
				return nil, err
			}
			ids[j] = id
		}
		contexts[i] = ids
	}
	x := mat.NewDense(len(windows), v.Len(), nil)
	for i, ids := range contexts {
		x.SetRow(i, Encode(v.Len(), ids))
	}
	set.X = x
	set.Y = y
	return set, nil
}
