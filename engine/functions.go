package engine

import (
	"database/sql/driver"
	"fmt"

	"github.com/viant/imgsim/vector"
	sqlite "modernc.org/sqlite"
)

// RegisterVectorFunctions registers vec_cosine and vec_l2 with the driver so
// they are available on new connections opened after this call. Existing open
// connections will not see new functions. Open calls it implicitly.
func RegisterVectorFunctions() {
	registerOnce.Do(registerVectorFunctions)
}

func registerVectorFunctions() {
	// The driver rejects duplicate registrations; registerOnce guards against that.
	_ = sqlite.RegisterDeterministicScalarFunction("vec_cosine", 2, vecCosineImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("vec_l2", 2, vecL2Impl)
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	default:
		return nil, fmt.Errorf("engine: unsupported argument type %T for embedding; want BLOB", arg)
	}
}

func embeddingPair(name string, args []driver.Value) ([]float32, []float32, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
	}
	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func vecCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := embeddingPair("vec_cosine", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vector.CosineSimilarity(a, b)
}

func vecL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := embeddingPair("vec_l2", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vector.L2Distance(a, b)
}
