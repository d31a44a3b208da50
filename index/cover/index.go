package cover

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/wordvec/embedding"
	"github.com/viant/wordvec/index/bruteforce"
	"github.com/viant/wordvec/internal/cover/tree"
)

// Tree knobs re-exported so callers configure the index without importing
// internal packages.
type (
	// BoundStrategy selects the pruning bound used during search.
	BoundStrategy = tree.BoundStrategy
	// DistanceFunction names the metric the tree is built on.
	DistanceFunction = tree.DistanceFunction
)

const (
	BoundPerNode = tree.BoundPerNode
	BoundLevel   = tree.BoundLevel

	DistanceFunctionCosine    = tree.DistanceFunctionCosine
	DistanceFunctionEuclidean = tree.DistanceFunctionEuclidean
)

// coverMagic prefixes serialized cover indexes so loaders can tell them
// apart from plain brute-force payloads.
const coverMagic = "COV1"

// IsCoverBlob reports whether blob carries a serialized cover index.
func IsCoverBlob(blob []byte) bool {
	return len(blob) >= 4 && string(blob[:4]) == coverMagic
}

// Option configures an Index at construction time.
type Option func(*Index)

// WithBase sets the cover-tree expansion base; values <= 1 fall back to
// the default 1.3.
func WithBase(base float32) Option {
	return func(i *Index) { i.base = base }
}

// WithDistance selects the distance metric the tree is built on.
func WithDistance(metric DistanceFunction) Option {
	return func(i *Index) { i.metric = metric }
}

// WithBoundStrategy selects the kNN pruning bound.
func WithBoundStrategy(s BoundStrategy) Option {
	return func(i *Index) { i.bound = s }
}

// WithBuildParallelism sets how many goroutines insert points during a
// build; values below 2 build serially.
func WithBuildParallelism(n int) Option {
	return func(i *Index) { i.parallelism = n }
}

// Index is a cover-tree kNN index. Construction options are not part of
// the serialized form: a loader reconstructs the index with the same
// options and restores the entries with UnmarshalBinary.
type Index struct {
	base        float32
	metric      DistanceFunction
	bound       BoundStrategy
	parallelism int

	ids  []int
	vecs [][]float32
	dim  int
	t    *tree.Tree
}

// New constructs an empty index; populate it with Build or
// UnmarshalBinary.
func New(opts ...Option) *Index {
	idx := &Index{
		base:   1.3,
		metric: DistanceFunctionCosine,
		bound:  BoundPerNode,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Build snapshots the table into a fresh tree. With the cosine metric,
// zero-magnitude rows are skipped the same way the brute-force index
// skips them; under the euclidean metric every row is kept.
func (i *Index) Build(src embedding.Table) error {
	i.ids, i.vecs, i.dim, i.t = nil, nil, 0, nil
	if src == nil || src.Len() == 0 {
		return nil
	}
	dim := src.Dim()
	ids := make([]int, 0, src.Len())
	vecs := make([][]float32, 0, src.Len())
	for id := 0; id < src.Len(); id++ {
		vec, err := src.Vector(id)
		if err != nil {
			return fmt.Errorf("cover: reading vector %d: %w", id, err)
		}
		if len(vec) != dim {
			return fmt.Errorf("cover: inconsistent vector dims %d vs %d", len(vec), dim)
		}
		if i.metric == DistanceFunctionCosine && embedding.Magnitude(vec) == 0 {
			continue
		}
		ids = append(ids, id)
		vecs = append(vecs, vec)
	}
	i.rebuild(dim, ids, vecs)
	return nil
}

func (i *Index) rebuild(dim int, ids []int, vecs [][]float32) {
	t := tree.New(i.base, i.metric)
	t.SetBoundStrategy(i.bound)
	if n := i.parallelism; n > 1 && len(ids) > 1 {
		var wg sync.WaitGroup
		chunk := (len(ids) + n - 1) / n
		for start := 0; start < len(ids); start += chunk {
			end := start + chunk
			if end > len(ids) {
				end = len(ids)
			}
			wg.Add(1)
			go func(lo, hi int) {
				defer wg.Done()
				for j := lo; j < hi; j++ {
					t.Insert(tree.NewPoint(int32(ids[j]), vecs[j]))
				}
			}(start, end)
		}
		wg.Wait()
	} else {
		for j := range ids {
			t.Insert(tree.NewPoint(int32(ids[j]), vecs[j]))
		}
	}
	i.ids, i.vecs, i.dim, i.t = ids, vecs, dim, t
}

// Query returns up to k entries ordered by descending score, ties in the
// returned set by ascending id. With the cosine metric the score is the
// cosine similarity (1 - distance) and a zero-magnitude query is
// rejected; with the euclidean metric the score is the negated distance.
func (i *Index) Query(query []float32, k int) ([]int, []float64, error) {
	if i.t == nil || len(i.ids) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("cover: query dim %d != index dim %d", len(query), i.dim)
	}
	if i.metric == DistanceFunctionCosine && embedding.Magnitude(query) == 0 {
		return nil, nil, &embedding.ZeroVectorError{ID: -1}
	}
	if k <= 0 || k > len(i.ids) {
		k = len(i.ids)
	}
	neighbors := i.t.KNearestNeighbors(tree.NewPoint(-1, query), k)
	type scored struct {
		id    int
		score float64
	}
	scoreds := make([]scored, 0, len(neighbors))
	for _, nb := range neighbors {
		scoreds = append(scoreds, scored{id: int(nb.Point.ID), score: i.score(nb.Distance)})
	}
	sort.Slice(scoreds, func(a, b int) bool {
		if scoreds[a].score != scoreds[b].score {
			return scoreds[a].score > scoreds[b].score
		}
		return scoreds[a].id < scoreds[b].id
	})
	ids := make([]int, len(scoreds))
	scores := make([]float64, len(scoreds))
	for n := range scoreds {
		ids[n] = scoreds[n].id
		scores[n] = scoreds[n].score
	}
	return ids, scores, nil
}

func (i *Index) score(distance float32) float64 {
	if i.metric == DistanceFunctionEuclidean {
		return -float64(distance)
	}
	return 1 - float64(distance)
}

// MarshalBinary prefixes the shared entry encoding with the cover magic;
// the tree itself is rebuilt on load.
func (i *Index) MarshalBinary() ([]byte, error) {
	payload := bruteforce.EncodeEntries(i.dim, i.ids, i.vecs)
	out := make([]byte, 0, len(coverMagic)+len(payload))
	out = append(out, coverMagic...)
	return append(out, payload...), nil
}

// UnmarshalBinary restores the entries from MarshalBinary bytes and
// rebuilds the tree with the index's construction options.
func (i *Index) UnmarshalBinary(data []byte) error {
	if !IsCoverBlob(data) {
		return errors.New("cover: missing magic prefix")
	}
	dim, ids, vecs, err := bruteforce.DecodeEntries(data[len(coverMagic):])
	if err != nil {
		return err
	}
	i.rebuild(dim, ids, vecs)
	return nil
}
