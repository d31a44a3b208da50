package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/viant/wordvec/embedding"
	"github.com/viant/wordvec/index"
	"github.com/viant/wordvec/index/bruteforce"
	"github.com/viant/wordvec/index/cover"
	"github.com/viant/wordvec/similarity"
	"github.com/viant/wordvec/vocab"
)

const (
	// indexName keys the single persisted index in vector_index.
	indexName = "default"
	// autoIndexMinWords is the corpus size at which search switches from
	// the in-SQL vec_cosine scan to a cached kNN index.
	autoIndexMinWords = 4000
	// autoCoverMinDim is the dimensionality at which an indexed corpus
	// gets the cover tree instead of the brute-force index.
	autoCoverMinDim = 64
)

// DB is a durable word-vector store backed by a SQLite database.
type DB struct {
	db *sql.DB

	mu    sync.Mutex
	count int
	dim   int
	idx   index.Index
}

// Open opens a word-vector store at path, creating the schema when
// missing.
//
// For file-based stores, pass a path like "./vectors.sqlite". For a
// private in-memory store, pass ":memory:".
func Open(ctx context.Context, path string) (*DB, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	registerFunctions()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every pooled connection gets its own in-memory database, so the
		// store would lose its tables whenever the pool grew.
		db.SetMaxOpenConns(1)
	}
	s := &DB{db: db}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens a private in-memory store.
func OpenInMemory(ctx context.Context) (*DB, error) {
	return Open(ctx, ":memory:")
}

// Close releases the underlying database handle.
func (s *DB) Close() error { return s.db.Close() }

// SQL exposes the underlying handle for ad-hoc queries; vec_cosine and
// vec_l2 are available on its connections.
func (s *DB) SQL() *sql.DB { return s.db }

func (s *DB) init(ctx context.Context) error {
	for _, ddl := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("store: ensuring schema: %w", err)
		}
	}
	return s.refreshStats(ctx)
}

func (s *DB) refreshStats(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&count); err != nil {
		return fmt.Errorf("store: counting words: %w", err)
	}
	dim := 0
	if count > 0 {
		var blobLen int
		if err := s.db.QueryRowContext(ctx, `SELECT LENGTH(vector) FROM words ORDER BY id LIMIT 1`).Scan(&blobLen); err != nil {
			return fmt.Errorf("store: reading vector width: %w", err)
		}
		dim = blobLen / 4
	}
	s.mu.Lock()
	s.count, s.dim = count, dim
	s.mu.Unlock()
	return nil
}

// Add upserts words with their vectors inside one transaction. Existing
// words keep their id and receive the new vector; new words get the next
// dense ids in input order. The first vector ever stored pins the
// dimensionality, and zero-magnitude vectors are rejected so every stored
// row can participate in cosine ranking. Any write drops cached and
// persisted indexes.
func (s *DB) Add(ctx context.Context, words []string, vectors [][]float32) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(words) != len(vectors) {
		return fmt.Errorf("store: words and vectors length mismatch: %d != %d", len(words), len(vectors))
	}
	if len(words) == 0 {
		return nil
	}
	dim := s.Dim()
	if dim == 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return fmt.Errorf("store: cannot store zero-dimension vectors")
	}
	for i := range vectors {
		if len(vectors[i]) != dim {
			return fmt.Errorf("store: vector for %q has dim %d, want %d", words[i], len(vectors[i]), dim)
		}
		if embedding.Magnitude(vectors[i]) == 0 {
			return fmt.Errorf("store: vector for %q has zero magnitude", words[i])
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&next); err != nil {
		return err
	}
	selectStmt, err := tx.PrepareContext(ctx, `SELECT id FROM words WHERE word = ?`)
	if err != nil {
		return err
	}
	defer selectStmt.Close()
	insertStmt, err := tx.PrepareContext(ctx, `INSERT INTO words(id, word, vector) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertStmt.Close()
	updateStmt, err := tx.PrepareContext(ctx, `UPDATE words SET vector = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer updateStmt.Close()

	for i, word := range words {
		blob := embedding.Encode(vectors[i])
		var id int
		err := selectStmt.QueryRowContext(ctx, word).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			if _, err := insertStmt.ExecContext(ctx, next, word, blob); err != nil {
				return fmt.Errorf("store: inserting %q: %w", word, err)
			}
			next++
		case err != nil:
			return err
		default:
			if _, err := updateStmt.ExecContext(ctx, blob, id); err != nil {
				return fmt.Errorf("store: updating %q: %w", word, err)
			}
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vector_index`); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.mu.Lock()
	s.count, s.dim, s.idx = next, dim, nil
	s.mu.Unlock()
	return nil
}

// AddTable copies every row of a table, named by the lexicon that built
// it, into the store in id order. It is the bridge from a freshly trained
// model to durable storage: AddTable(ctx, vocabulary, model.Table()).
func (s *DB) AddTable(ctx context.Context, lex similarity.Lexicon, t embedding.Table) error {
	words := make([]string, t.Len())
	vectors := make([][]float32, t.Len())
	for id := 0; id < t.Len(); id++ {
		word, err := lex.Token(id)
		if err != nil {
			return fmt.Errorf("store: resolving id %d: %w", id, err)
		}
		vec, err := t.Vector(id)
		if err != nil {
			return fmt.Errorf("store: reading vector %d: %w", id, err)
		}
		words[id] = word
		vectors[id] = vec
	}
	return s.Add(ctx, words, vectors)
}

// ID returns the id stored for word; missing words report
// vocab.UnknownTokenError, matching the in-memory vocabulary.
func (s *DB) ID(word string) (int, error) {
	var id int
	err := s.db.QueryRow(`SELECT id FROM words WHERE word = ?`, word).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, &vocab.UnknownTokenError{Token: word}
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Token returns the word stored under id.
func (s *DB) Token(id int) (string, error) {
	var word string
	err := s.db.QueryRow(`SELECT word FROM words WHERE id = ?`, id).Scan(&word)
	if err == sql.ErrNoRows {
		return "", &vocab.OutOfRangeError{ID: id, Size: s.Len()}
	}
	if err != nil {
		return "", err
	}
	return word, nil
}

// Vector returns the embedding stored under id.
func (s *DB) Vector(id int) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT vector FROM words WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, &vocab.OutOfRangeError{ID: id, Size: s.Len()}
	}
	if err != nil {
		return nil, err
	}
	return embedding.Decode(blob)
}

// Len returns the number of stored words.
func (s *DB) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Dim returns the pinned vector dimensionality, 0 while the store is
// empty.
func (s *DB) Dim() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dim
}

// Words returns every stored word in id order.
func (s *DB) Words(ctx context.Context) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT word FROM words ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, err
		}
		out = append(out, word)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Nearest ranks stored words against an ad-hoc query vector and returns
// up to k matches ordered by descending cosine similarity, ties by
// ascending id. Small stores are scanned directly in SQL through
// vec_cosine; larger ones go through the cached kNN index.
func (s *DB) Nearest(ctx context.Context, query []float32, k int) ([]similarity.WordMatch, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	n := s.Len()
	if n == 0 {
		return nil, nil
	}
	if dim := s.Dim(); len(query) != dim {
		return nil, fmt.Errorf("store: query dim %d does not match stored dim %d", len(query), dim)
	}
	if embedding.Magnitude(query) == 0 {
		return nil, &embedding.ZeroVectorError{ID: -1}
	}
	if k <= 0 || k > n {
		k = n
	}
	if n < autoIndexMinWords {
		return s.nearestSQL(ctx, query, k, -1)
	}
	return s.nearestIndexed(ctx, query, k, -1)
}

// MostSimilar ranks stored words against the vector of word, excluding
// word itself, and returns up to topN matches.
func (s *DB) MostSimilar(ctx context.Context, word string, topN int) ([]similarity.WordMatch, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id, err := s.ID(word)
	if err != nil {
		return nil, err
	}
	vec, err := s.Vector(id)
	if err != nil {
		return nil, err
	}
	n := s.Len()
	if topN <= 0 || topN > n-1 {
		topN = n - 1
	}
	if topN <= 0 {
		return nil, nil
	}
	if n < autoIndexMinWords {
		return s.nearestSQL(ctx, vec, topN, id)
	}
	return s.nearestIndexed(ctx, vec, topN, id)
}

func (s *DB) nearestSQL(ctx context.Context, query []float32, k, exclude int) ([]similarity.WordMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT word, vec_cosine(vector, ?) AS score
FROM words
WHERE id != ?
ORDER BY score DESC, id ASC
LIMIT ?`, embedding.Encode(query), exclude, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []similarity.WordMatch
	for rows.Next() {
		var m similarity.WordMatch
		if err := rows.Scan(&m.Word, &m.Score); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DB) nearestIndexed(ctx context.Context, query []float32, k, exclude int) ([]similarity.WordMatch, error) {
	idx, err := s.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}
	want := k
	if exclude >= 0 {
		want = k + 1
	}
	ids, scores, err := idx.Query(query, want)
	if err != nil {
		return nil, err
	}
	words, err := s.wordsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]similarity.WordMatch, 0, k)
	for j, id := range ids {
		if id == exclude {
			continue
		}
		word, ok := words[id]
		if !ok {
			return nil, fmt.Errorf("store: index returned unknown id %d", id)
		}
		out = append(out, similarity.WordMatch{Word: word, Score: scores[j]})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (s *DB) wordsByID(ctx context.Context, ids []int) (map[int]string, error) {
	if len(ids) == 0 {
		return map[int]string{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, word FROM words WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int]string, len(ids))
	for rows.Next() {
		var id int
		var word string
		if err := rows.Scan(&id, &word); err != nil {
			return nil, err
		}
		out[id] = word
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Reindex rebuilds the kNN index from the words table and persists it,
// replacing any cached or stored copy.
func (s *DB) Reindex(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.buildIndexLocked(ctx)
	if err != nil {
		return err
	}
	if err := s.persistIndexLocked(ctx, idx); err != nil {
		return err
	}
	s.idx = idx
	return nil
}

// ensureIndex returns the cached kNN index, loading the persisted copy or
// building and persisting a fresh one when needed. Builds are serialized
// by the store mutex.
func (s *DB) ensureIndex(ctx context.Context) (index.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil {
		return s.idx, nil
	}
	if idx, ok, err := s.loadPersistedIndex(ctx); err != nil {
		return nil, err
	} else if ok {
		s.idx = idx
		return idx, nil
	}
	idx, err := s.buildIndexLocked(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.persistIndexLocked(ctx, idx); err != nil {
		return nil, err
	}
	s.idx = idx
	return idx, nil
}

func (s *DB) loadPersistedIndex(ctx context.Context) (index.Index, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM vector_index WHERE name = ?`, indexName).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(blob) == 0 {
		return nil, false, nil
	}
	if cover.IsCoverBlob(blob) {
		c := s.newCoverIndex()
		if err := c.UnmarshalBinary(blob); err == nil {
			return c, true, nil
		}
		return nil, false, nil
	}
	b := bruteforce.New()
	if err := b.UnmarshalBinary(blob); err == nil {
		return b, true, nil
	}
	return nil, false, nil
}

func (s *DB) newCoverIndex() *cover.Index {
	return cover.New(cover.WithBuildParallelism(runtime.GOMAXPROCS(0)))
}

// buildIndexLocked loads every row and builds the index kind suited to
// the corpus shape. Callers hold s.mu.
func (s *DB) buildIndexLocked(ctx context.Context) (index.Index, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, vector FROM words ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vecs [][]float32
	for rows.Next() {
		var id int
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		vec, err := embedding.Decode(blob)
		if err != nil {
			return nil, err
		}
		if id != len(vecs) {
			return nil, fmt.Errorf("store: non-dense id %d at position %d", id, len(vecs))
		}
		vecs = append(vecs, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var idx index.Index
	if len(vecs) >= autoIndexMinWords && s.dim >= autoCoverMinDim {
		idx = s.newCoverIndex()
	} else {
		idx = bruteforce.New()
	}
	if len(vecs) == 0 {
		return idx, nil
	}
	if err := idx.Build(embedding.NewDense(vecs)); err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *DB) persistIndexLocked(ctx context.Context, idx index.Index) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO vector_index(name, data) VALUES(?, ?)`, indexName, data)
	return err
}

// The store stands in for the in-memory vocabulary and table pair.
var (
	_ embedding.Table    = (*DB)(nil)
	_ similarity.Lexicon = (*DB)(nil)
)
