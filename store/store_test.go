package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/viant/wordvec/embedding"
	"github.com/viant/wordvec/similarity"
	"github.com/viant/wordvec/vocab"
)

// openTestStore returns an in-memory store seeded with the royal fixture.
func openTestStore(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	s, err := OpenInMemory(ctx)
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	err = s.Add(ctx, []string{"king", "man", "woman", "queen"}, [][]float32{
		{2, 0},
		{1, 0},
		{1, 1},
		{2, 1},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return s
}

func TestAddAndLookup(t *testing.T) {
	s := openTestStore(t)
	if got := s.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}
	if got := s.Dim(); got != 2 {
		t.Fatalf("Dim() = %d, want 2", got)
	}

	// Ids are dense and follow insertion order.
	for i, word := range []string{"king", "man", "woman", "queen"} {
		id, err := s.ID(word)
		if err != nil {
			t.Fatalf("ID(%q) failed: %v", word, err)
		}
		if id != i {
			t.Fatalf("ID(%q) = %d, want %d", word, id, i)
		}
		back, err := s.Token(id)
		if err != nil {
			t.Fatalf("Token(%d) failed: %v", id, err)
		}
		if back != word {
			t.Fatalf("Token(%d) = %q, want %q", id, back, word)
		}
	}

	vec, err := s.Vector(3)
	if err != nil {
		t.Fatalf("Vector(3) failed: %v", err)
	}
	if vec[0] != 2 || vec[1] != 1 {
		t.Fatalf("Vector(3) = %v, want [2 1]", vec)
	}

	var unknown *vocab.UnknownTokenError
	if _, err := s.ID("prince"); !errors.As(err, &unknown) {
		t.Fatalf("ID(prince) error = %v, want UnknownTokenError", err)
	}
	var outOfRange *vocab.OutOfRangeError
	if _, err := s.Token(99); !errors.As(err, &outOfRange) {
		t.Fatalf("Token(99) error = %v, want OutOfRangeError", err)
	}
	if _, err := s.Vector(-1); !errors.As(err, &outOfRange) {
		t.Fatalf("Vector(-1) error = %v, want OutOfRangeError", err)
	}

	words, err := s.Words(context.Background())
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	if len(words) != 4 || words[0] != "king" || words[3] != "queen" {
		t.Fatalf("Words = %v, want id order", words)
	}
}

func TestAddUpsertKeepsID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	err := s.Add(ctx, []string{"man", "prince"}, [][]float32{
		{1, 0.5},
		{2, 0.5},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if got := s.Len(); got != 5 {
		t.Fatalf("Len() after upsert = %d, want 5", got)
	}
	id, err := s.ID("man")
	if err != nil {
		t.Fatalf("ID(man) failed: %v", err)
	}
	if id != 1 {
		t.Fatalf("ID(man) after upsert = %d, want 1", id)
	}
	vec, err := s.Vector(1)
	if err != nil {
		t.Fatalf("Vector(1) failed: %v", err)
	}
	if vec[0] != 1 || vec[1] != 0.5 {
		t.Fatalf("Vector(1) = %v, want [1 0.5]", vec)
	}
	newID, err := s.ID("prince")
	if err != nil {
		t.Fatalf("ID(prince) failed: %v", err)
	}
	if newID != 4 {
		t.Fatalf("ID(prince) = %d, want 4", newID)
	}
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}}); err == nil {
		t.Fatal("Add with mismatched lengths succeeded, want error")
	}
	if err := s.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}}); err == nil {
		t.Fatal("Add with wrong dim succeeded, want error")
	}
	if err := s.Add(ctx, []string{"a"}, [][]float32{{0, 0}}); err == nil {
		t.Fatal("Add with zero-magnitude vector succeeded, want error")
	}
}

func TestScalarFunctionsViaSQL(t *testing.T) {
	s := openTestStore(t)
	db := s.SQL()

	// vec_cosine orthogonal -> 0, identical -> 1
	var sim float64
	if err := db.QueryRow(`SELECT vec_cosine(?, ?)`, embedding.Encode([]float32{1, 0}), embedding.Encode([]float32{0, 1})).Scan(&sim); err != nil {
		t.Fatalf("vec_cosine query failed: %v", err)
	}
	if sim != 0 {
		t.Fatalf("vec_cosine orthogonal = %v, want 0", sim)
	}
	if err := db.QueryRow(`SELECT vec_cosine(vector, ?) FROM words WHERE word = 'man'`, embedding.Encode([]float32{1, 0})).Scan(&sim); err != nil {
		t.Fatalf("vec_cosine on stored row failed: %v", err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Fatalf("vec_cosine(man, [1 0]) = %v, want 1", sim)
	}

	// vec_l2 between (0,0) and (3,4) -> 5
	var dist float64
	if err := db.QueryRow(`SELECT vec_l2(?, ?)`, embedding.Encode([]float32{0, 0}), embedding.Encode([]float32{3, 4})).Scan(&dist); err != nil {
		t.Fatalf("vec_l2 query failed: %v", err)
	}
	if math.Abs(dist-5) > 1e-9 {
		t.Fatalf("vec_l2 = %v, want 5", dist)
	}

	// Ranking directly in SQL mirrors the store's search path.
	var word string
	if err := db.QueryRow(`SELECT word FROM words ORDER BY vec_cosine(vector, ?) DESC, id ASC LIMIT 1`, embedding.Encode([]float32{2, 1})).Scan(&word); err != nil {
		t.Fatalf("ORDER BY vec_cosine failed: %v", err)
	}
	if word != "queen" {
		t.Fatalf("nearest to [2 1] via SQL = %q, want queen", word)
	}
}

func TestMostSimilar(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	matches, err := s.MostSimilar(ctx, "king", 2)
	if err != nil {
		t.Fatalf("MostSimilar failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("MostSimilar returned %d matches, want 2", len(matches))
	}
	if matches[0].Word != "man" {
		t.Fatalf("MostSimilar[0] = %q, want man", matches[0].Word)
	}
	if math.Abs(matches[0].Score-1) > 1e-9 {
		t.Fatalf("MostSimilar[0].Score = %v, want 1", matches[0].Score)
	}
	if matches[1].Word != "queen" {
		t.Fatalf("MostSimilar[1] = %q, want queen", matches[1].Word)
	}
	for _, m := range matches {
		if m.Word == "king" {
			t.Fatal("MostSimilar returned the query word itself")
		}
	}

	var unknown *vocab.UnknownTokenError
	if _, err := s.MostSimilar(ctx, "prince", 2); !errors.As(err, &unknown) {
		t.Fatalf("MostSimilar(prince) error = %v, want UnknownTokenError", err)
	}
}

func TestNearest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	matches, err := s.Nearest(ctx, []float32{2, 1}, 1)
	if err != nil {
		t.Fatalf("Nearest failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Word != "queen" {
		t.Fatalf("Nearest([2 1], 1) = %v, want queen", matches)
	}
	if math.Abs(matches[0].Score-1) > 1e-9 {
		t.Fatalf("Nearest score = %v, want 1", matches[0].Score)
	}

	var zeroErr *embedding.ZeroVectorError
	if _, err := s.Nearest(ctx, []float32{0, 0}, 1); !errors.As(err, &zeroErr) {
		t.Fatalf("Nearest zero query error = %v, want ZeroVectorError", err)
	}
	if _, err := s.Nearest(ctx, []float32{1, 0, 0}, 1); err == nil {
		t.Fatal("Nearest with wrong dim succeeded, want error")
	}
}

func TestWordsFacadeOverStore(t *testing.T) {
	s := openTestStore(t)
	words := similarity.Words{Table: s, Lexicon: s}

	m, err := words.Analogy("king", "man", "woman")
	if err != nil {
		t.Fatalf("Analogy failed: %v", err)
	}
	if m.Word != "queen" {
		t.Fatalf("Analogy(king, man, woman) = %q, want queen", m.Word)
	}
	if math.Abs(m.Score-1) > 1e-9 {
		t.Fatalf("Analogy score = %v, want 1", m.Score)
	}

	matches, err := words.MostSimilar("king", 2)
	if err != nil {
		t.Fatalf("MostSimilar via facade failed: %v", err)
	}
	if matches[0].Word != "man" || matches[1].Word != "queen" {
		t.Fatalf("MostSimilar via facade = %v, want [man queen]", matches)
	}
}

func TestIndexedPathMatchesSQL(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	vec, err := s.Vector(0)
	if err != nil {
		t.Fatalf("Vector(0) failed: %v", err)
	}

	fromSQL, err := s.nearestSQL(ctx, vec, 3, 0)
	if err != nil {
		t.Fatalf("nearestSQL failed: %v", err)
	}
	fromIndex, err := s.nearestIndexed(ctx, vec, 3, 0)
	if err != nil {
		t.Fatalf("nearestIndexed failed: %v", err)
	}
	if len(fromIndex) != len(fromSQL) {
		t.Fatalf("indexed path returned %d matches, SQL path %d", len(fromIndex), len(fromSQL))
	}
	for i := range fromSQL {
		if fromIndex[i].Word != fromSQL[i].Word {
			t.Fatalf("match[%d] = %q via index, %q via SQL", i, fromIndex[i].Word, fromSQL[i].Word)
		}
		if math.Abs(fromIndex[i].Score-fromSQL[i].Score) > 1e-12 {
			t.Fatalf("score[%d] = %v via index, %v via SQL", i, fromIndex[i].Score, fromSQL[i].Score)
		}
	}

	// ensureIndex persisted the freshly built index.
	var blobs int
	if err := s.SQL().QueryRow(`SELECT COUNT(*) FROM vector_index`).Scan(&blobs); err != nil {
		t.Fatalf("counting vector_index failed: %v", err)
	}
	if blobs != 1 {
		t.Fatalf("vector_index holds %d rows, want 1", blobs)
	}
}

func TestAddDropsPersistedIndex(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.Reindex(ctx); err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if err := s.Add(ctx, []string{"prince"}, [][]float32{{2, 0.5}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	var blobs int
	if err := s.SQL().QueryRow(`SELECT COUNT(*) FROM vector_index`).Scan(&blobs); err != nil {
		t.Fatalf("counting vector_index failed: %v", err)
	}
	if blobs != 0 {
		t.Fatalf("vector_index holds %d rows after write, want 0", blobs)
	}
	// The new word is visible to search immediately.
	matches, err := s.MostSimilar(ctx, "king", 4)
	if err != nil {
		t.Fatalf("MostSimilar failed: %v", err)
	}
	found := false
	for _, m := range matches {
		if m.Word == "prince" {
			found = true
		}
	}
	if !found {
		t.Fatalf("MostSimilar after Add = %v, want prince included", matches)
	}
}

func TestReindexSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.sqlite")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	err = s.Add(ctx, []string{"north", "south", "east", "west"}, [][]float32{
		{0, 1},
		{0, -1},
		{1, 0},
		{-1, 0},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Reindex(ctx); err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	if got := reopened.Len(); got != 4 {
		t.Fatalf("Len() after reopen = %d, want 4", got)
	}
	idx, ok, err := reopened.loadPersistedIndex(ctx)
	if err != nil {
		t.Fatalf("loadPersistedIndex failed: %v", err)
	}
	if !ok {
		t.Fatal("persisted index missing after reopen")
	}
	ids, _, err := idx.Query([]float32{0.9, 0.1}, 1)
	if err != nil {
		t.Fatalf("Query on loaded index failed: %v", err)
	}
	eastID, err := reopened.ID("east")
	if err != nil {
		t.Fatalf("ID(east) failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != eastID {
		t.Fatalf("loaded index nearest = %v, want [%d]", ids, eastID)
	}
	matches, err := reopened.Nearest(ctx, []float32{0.9, 0.1}, 1)
	if err != nil {
		t.Fatalf("Nearest after reopen failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Word != "east" {
		t.Fatalf("Nearest after reopen = %v, want east", matches)
	}
}

func TestImportText(t *testing.T) {
	ctx := context.Background()
	s, err := OpenInMemory(ctx)
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	defer s.Close()

	// Header line is detected and skipped.
	input := "3 2\nup 0 1\ndown 0 -1\nright 1 0\n"
	n, err := s.ImportText(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportText failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("ImportText = %d, want 3", n)
	}
	if got := s.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	vec, err := s.Vector(1)
	if err != nil {
		t.Fatalf("Vector(1) failed: %v", err)
	}
	if vec[0] != 0 || vec[1] != -1 {
		t.Fatalf("Vector(1) = %v, want [0 -1]", vec)
	}

	// Headerless input and upserts through import.
	n, err = s.ImportText(ctx, strings.NewReader("up 0.5 0.5\nleft -1 0\n"))
	if err != nil {
		t.Fatalf("ImportText without header failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("ImportText = %d, want 2", n)
	}
	if got := s.Len(); got != 4 {
		t.Fatalf("Len() after second import = %d, want 4", got)
	}
	id, err := s.ID("up")
	if err != nil {
		t.Fatalf("ID(up) failed: %v", err)
	}
	if id != 0 {
		t.Fatalf("ID(up) after upsert = %d, want 0", id)
	}

	if _, err := s.ImportText(ctx, strings.NewReader("bad one\n")); err == nil {
		t.Fatal("ImportText with invalid float succeeded, want error")
	}
	if _, err := s.ImportText(ctx, strings.NewReader("lonely\n")); err == nil {
		t.Fatal("ImportText with missing floats succeeded, want error")
	}
}
