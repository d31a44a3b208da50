package bruteforce

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/wordvec/embedding"
)

// Index is a brute-force vector index scoring entries by cosine similarity.
type Index struct {
	ids  []int
	vecs [][]float32
	dim  int
	mags []float64
}

// New returns an empty index; populate it with Build or UnmarshalBinary.
func New() *Index {
	return &Index{}
}

// Build snapshots the table, keeping ids with non-zero magnitude so every
// retained entry can participate in cosine scoring.
func (i *Index) Build(t embedding.Table) error {
	if t == nil || t.Len() == 0 {
		i.ids, i.vecs, i.mags, i.dim = nil, nil, nil, 0
		return nil
	}
	dim := t.Dim()
	ids := make([]int, 0, t.Len())
	vecs := make([][]float32, 0, t.Len())
	mags := make([]float64, 0, t.Len())
	for id := 0; id < t.Len(); id++ {
		vec, err := t.Vector(id)
		if err != nil {
			return fmt.Errorf("bruteforce: reading vector %d: %w", id, err)
		}
		if len(vec) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d", len(vec), dim)
		}
		m := embedding.Magnitude(vec)
		if m == 0 {
			continue
		}
		ids = append(ids, id)
		vecs = append(vecs, vec)
		mags = append(mags, m)
	}
	i.ids, i.vecs, i.mags, i.dim = ids, vecs, mags, dim
	return nil
}

// Query returns up to k entries ordered by descending cosine similarity,
// ties by ascending id. k <= 0 returns every entry.
func (i *Index) Query(query []float32, k int) ([]int, []float64, error) {
	if len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	qm := embedding.Magnitude(query)
	if qm == 0 {
		return nil, nil, &embedding.ZeroVectorError{ID: -1}
	}
	type scored struct {
		id    int
		score float64
	}
	scoreds := make([]scored, len(i.vecs))
	for j := range i.vecs {
		scoreds[j] = scored{id: i.ids[j], score: dot(query, i.vecs[j]) / (qm * i.mags[j])}
	}
	sort.Slice(scoreds, func(a, b int) bool {
		if scoreds[a].score != scoreds[b].score {
			return scoreds[a].score > scoreds[b].score
		}
		return scoreds[a].id < scoreds[b].id
	})
	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	outIDs := make([]int, k)
	outScores := make([]float64, k)
	for n := 0; n < k; n++ {
		outIDs[n] = scoreds[n].id
		outScores[n] = scoreds[n].score
	}
	return outIDs, outScores, nil
}

// MarshalBinary encodes the retained entries with EncodeEntries.
func (i *Index) MarshalBinary() ([]byte, error) {
	return EncodeEntries(i.dim, i.ids, i.vecs), nil
}

// UnmarshalBinary restores the index from EncodeEntries bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	dim, ids, vecs, err := DecodeEntries(data)
	if err != nil {
		return err
	}
	mags := make([]float64, len(vecs))
	for j := range vecs {
		mags[j] = embedding.Magnitude(vecs[j])
	}
	i.ids, i.vecs, i.mags, i.dim = ids, vecs, mags, dim
	return nil
}

// EncodeEntries packs (id, vector) pairs into the shared persistence
// layout: dim(uint32), n(uint32), then id(uint32) and float32[dim] per
// entry, all little-endian.
func EncodeEntries(dim int, ids []int, vecs [][]float32) []byte {
	out := make([]byte, 0, 8+len(ids)*(4+4*dim))
	putU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		out = append(out, b[:]...)
	}
	putU32(uint32(dim))
	putU32(uint32(len(ids)))
	for idx, id := range ids {
		putU32(uint32(id))
		for j := 0; j < dim; j++ {
			putU32(math.Float32bits(vecs[idx][j]))
		}
	}
	return out
}

// DecodeEntries unpacks a payload produced by EncodeEntries.
func DecodeEntries(data []byte) (dim int, ids []int, vecs [][]float32, err error) {
	if len(data) < 8 {
		return 0, nil, nil, errors.New("bruteforce: invalid data")
	}
	off := 0
	getU32 := func() uint32 {
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v
	}
	dim = int(getU32())
	n := int(getU32())
	if need := n * (4 + 4*dim); len(data)-off < need {
		return 0, nil, nil, errors.New("bruteforce: truncated data")
	}
	ids = make([]int, n)
	vecs = make([][]float32, n)
	for idx := 0; idx < n; idx++ {
		ids[idx] = int(getU32())
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(getU32())
		}
		vecs[idx] = vec
	}
	return dim, ids, vecs, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
