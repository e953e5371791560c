package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/viant/imgsim/vector"
)

// ErrMiss is returned by Load when no cache exists for a dataset. It is a
// recoverable condition that triggers regeneration.
var ErrMiss = errors.New("cache: miss")

// Backend saves and loads whole datasets.
type Backend interface {
	// Save replaces the cached vectors of dataset.
	Save(ctx context.Context, dataset string, vectors []vector.Vector) error

	// Load returns the cached vectors of dataset in saved order, or ErrMiss.
	Load(ctx context.Context, dataset string) ([]vector.Vector, error)
}

// Appender is implemented by backends that can add or overwrite a single
// vector without rewriting the dataset.
type Appender interface {
	Append(ctx context.Context, dataset string, v vector.Vector) error
}

// Remover is implemented by backends that can evict a single vector.
type Remover interface {
	Remove(ctx context.Context, dataset, owner string) error
}

// Key derives the storage key for a dataset name. The mapping is injective,
// so two different datasets never share a key, and the result is safe to use
// as a file or object name.
func Key(dataset string) (string, error) {
	if dataset == "" {
		return "", fmt.Errorf("cache: dataset name is empty")
	}
	return url.PathEscape(dataset), nil
}
