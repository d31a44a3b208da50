package store

import (
	"database/sql/driver"
	"fmt"
	"sync"

	sqlite "modernc.org/sqlite"

	"github.com/viant/wordvec/embedding"
)

var registerOnce sync.Once

// registerFunctions registers vec_cosine and vec_l2 with the driver. The
// registry is process-wide and connections opened before registration
// would not see the functions, so Open calls this before the first
// connection.
func registerFunctions() {
	registerOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("vec_cosine", 2, vecCosineImpl)
		_ = sqlite.RegisterDeterministicScalarFunction("vec_l2", 2, vecL2Impl)
	})
}

func asVector(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return embedding.Decode(v)
	default:
		return nil, fmt.Errorf("store: unsupported argument type %T for vector; want BLOB", arg)
	}
}

// vecCosineImpl backs the vec_cosine SQL function: the cosine similarity
// of two vector BLOBs. NULL arguments yield NULL.
func vecCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("vec_cosine: expected 2 arguments, got %d", len(args))
	}
	a, err := asVector(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asVector(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	return embedding.CosineSimilarity(a, b)
}

// vecL2Impl backs the vec_l2 SQL function: the Euclidean distance of two
// vector BLOBs. NULL arguments yield NULL.
func vecL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("vec_l2: expected 2 arguments, got %d", len(args))
	}
	a, err := asVector(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asVector(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	return embedding.L2Distance(a, b)
}
