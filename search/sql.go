package search

import (
	"context"
	"fmt"

	"github.com/viant/imgsim/cache"
	"github.com/viant/imgsim/index"
	"github.com/viant/imgsim/vector"
)

// Nearester answers kNN queries inside a storage backend. *cache.SQL over
// sqlite implements it.
type Nearester interface {
	Nearest(ctx context.Context, dataset string, query []float32, k int) ([]cache.Match, error)
}

func (s *Service) sqlSimilar(ctx context.Context, name string, k int) ([]index.Neighbor, error) {
	if err := s.store.EnsurePopulated(ctx); err != nil {
		return nil, err
	}
	v, err := s.store.Vector(ctx, name)
	if err != nil {
		return nil, err
	}
	if !s.store.Contains(name) {
		return s.nearest(ctx, v.Values, k)
	}
	if k <= 0 {
		return nil, nil
	}
	result, err := s.nearest(ctx, v.Values, k+1)
	if err != nil {
		return nil, err
	}
	return index.ExcludeSelf(result, name, k), nil
}

// nearest runs the query in the backend. The backend holds what the store
// last persisted.
func (s *Service) nearest(ctx context.Context, values []float32, k int) ([]index.Neighbor, error) {
	if s.opts.Nearester == nil {
		return nil, fmt.Errorf("search: %w: sql index requires a sqlite cache", vector.ErrConfiguration)
	}
	if s.opts.Metric == vector.Cosine {
		return nil, fmt.Errorf("search: %w: sql index supports the euclidean metric only", vector.ErrConfiguration)
	}
	if err := s.store.EnsurePopulated(ctx); err != nil {
		return nil, err
	}
	if s.store.Len() == 0 {
		return nil, vector.ErrEmptyCollection
	}
	if dim := s.store.Dimension(); len(values) != dim {
		return nil, &vector.DimensionMismatchError{Expected: dim, Actual: len(values)}
	}
	matches, err := s.opts.Nearester.Nearest(ctx, s.store.Dataset(), values, k)
	if err != nil {
		return nil, fmt.Errorf("search: sql nearest: %w", err)
	}
	out := make([]index.Neighbor, len(matches))
	for i, m := range matches {
		out[i] = index.Neighbor{Name: m.Name, Distance: m.Distance}
	}
	return out, nil
}
