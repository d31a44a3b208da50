package store

// The words table doubles as an embedding table addressed by id: ids are
// dense, 0-based and assigned by the store in insertion order. The
// vector_index table holds serialized kNN indexes keyed by name.
const (
	wordsSchema = `
CREATE TABLE IF NOT EXISTS words (
    id INTEGER PRIMARY KEY,
    word TEXT NOT NULL UNIQUE,
    vector BLOB NOT NULL
);
`

	vectorIndexSchema = `
CREATE TABLE IF NOT EXISTS vector_index (
    name TEXT PRIMARY KEY,
    data BLOB NOT NULL
);
`
)

var schemaStatements = []string{wordsSchema, vectorIndexSchema}
