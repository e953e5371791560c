package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/imgsim/category"
	"github.com/viant/imgsim/index"
	"github.com/viant/imgsim/index/bruteforce"
	"github.com/viant/imgsim/index/cover"
	"github.com/viant/imgsim/internal/logging"
	"github.com/viant/imgsim/store"
	"github.com/viant/imgsim/vector"
)

// Options configures a Service.
type Options struct {
	Kind   index.Kind
	Metric vector.Metric
	// CoverBase is the cover-tree expansion base; <= 1 uses the default.
	CoverBase float32
	// Labels is the category table; nil means COCO.
	Labels []string
	// Nearester serves queries when Kind is index.KindSQL.
	Nearester Nearester
	Logger    *logging.Logger
}

// Service runs queries against one store.
type Service struct {
	store  *store.Store
	opts   Options
	log    *logging.Logger
	interp *category.Interpreter

	mu    sync.Mutex
	index index.Index
	gen   uint64
}

// New returns a Service over s.
func New(s *store.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Kind == "" {
		opts.Kind = index.KindAuto
	}
	return &Service{
		store:  s,
		opts:   opts,
		log:    opts.Logger.WithDataset(s.Dataset()),
		interp: category.New(opts.Labels),
	}
}

// Index returns an index over the current store generation, populating the
// store and rebuilding the index as needed.
func (s *Service) Index(ctx context.Context) (index.Index, error) {
	if err := s.store.EnsurePopulated(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	vectors, gen := s.store.Snapshot()
	if s.index != nil && s.gen == gen {
		return s.index, nil
	}
	kind := s.opts.Kind.Resolve(len(vectors), s.store.Dimension())
	var idx index.Index
	if kind == index.KindCover {
		idx = cover.New(s.opts.Metric, s.opts.CoverBase)
	} else {
		idx = bruteforce.New(s.opts.Metric)
	}
	if err := idx.Build(vectors); err != nil {
		return nil, err
	}
	s.log.DebugContext(ctx, "index built", "kind", string(kind), "metric", s.opts.Metric.String(), "vectors", len(vectors), "generation", gen)
	s.index, s.gen = idx, gen
	return idx, nil
}

// Similar returns the k images closest to the stored image name, never
// including name itself. With the zero-vector missing policy an unknown name
// is queried as an all-zero vector.
func (s *Service) Similar(ctx context.Context, name string, k int) ([]index.Neighbor, error) {
	result, err := s.similar(ctx, name, k)
	s.log.LogSearch(ctx, name, k, len(result), err)
	return result, err
}

func (s *Service) similar(ctx context.Context, name string, k int) ([]index.Neighbor, error) {
	if s.opts.Kind == index.KindSQL {
		return s.sqlSimilar(ctx, name, k)
	}
	idx, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	if idx.Contains(name) {
		return idx.QueryExcludingSelf(name, k)
	}
	v, err := s.store.Vector(ctx, name)
	if err != nil {
		return nil, err
	}
	return idx.Query(v.Values, k)
}

// SimilarTo returns the k stored images closest to values.
func (s *Service) SimilarTo(ctx context.Context, values []float32, k int) ([]index.Neighbor, error) {
	var result []index.Neighbor
	var err error
	if s.opts.Kind == index.KindSQL {
		result, err = s.nearest(ctx, values, k)
	} else {
		var idx index.Index
		if idx, err = s.Index(ctx); err == nil {
			result, err = idx.Query(values, k)
		}
	}
	s.log.LogSearch(ctx, "vector", k, len(result), err)
	return result, err
}

// SearchImage adds the image at path to the store, then returns its k most
// similar stored images.
func (s *Service) SearchImage(ctx context.Context, path string, k int) (vector.Vector, []index.Neighbor, error) {
	v, err := s.store.AddImage(ctx, path)
	if err != nil {
		s.log.LogSearch(ctx, path, k, 0, err)
		return vector.Vector{}, nil, err
	}
	result, err := s.Similar(ctx, v.Owner, k)
	return v, result, err
}

// Categories returns the labelled categories present in the stored image
// name, ranked by descending score.
func (s *Service) Categories(ctx context.Context, name string) ([]category.Category, error) {
	v, err := s.store.Vector(ctx, name)
	if err != nil {
		return nil, err
	}
	scores, err := s.interp.Interpret(s.store.Kind(), v)
	if err != nil {
		return nil, fmt.Errorf("search: categories of %q: %w", name, err)
	}
	return category.Rank(scores), nil
}
