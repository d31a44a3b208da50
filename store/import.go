package store

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// importBatch bounds how many parsed lines are buffered before they are
// flushed in one Add transaction.
const importBatch = 4096

// ImportText loads vectors in the word2vec/GloVe text format: one
// "word v1 v2 ... vD" line per word, optionally preceded by a
// "count dim" header line, which is skipped. Lines are committed in
// batches, so words already flushed stay in the store when a later line
// fails. It returns the number of words imported.
func (s *DB) ImportText(ctx context.Context, r io.Reader) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var words []string
	var vectors [][]float32
	imported := 0
	line := 0
	flush := func() error {
		if len(words) == 0 {
			return nil
		}
		if err := s.Add(ctx, words, vectors); err != nil {
			return err
		}
		imported += len(words)
		words, vectors = words[:0], vectors[:0]
		return nil
	}

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && len(fields) == 2 && isInt(fields[0]) && isInt(fields[1]) {
			continue
		}
		if len(fields) < 2 {
			return imported, fmt.Errorf("store: line %d: want a word followed by floats", line)
		}
		vec := make([]float32, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return imported, fmt.Errorf("store: line %d: invalid float %q: %w", line, f, err)
			}
			vec[i] = float32(v)
		}
		words = append(words, fields[0])
		vectors = append(vectors, vec)
		if len(words) >= importBatch {
			if err := flush(); err != nil {
				return imported, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return imported, err
	}
	if err := flush(); err != nil {
		return imported, err
	}
	return imported, nil
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
