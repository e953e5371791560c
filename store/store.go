package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/viant/imgsim/cache"
	"github.com/viant/imgsim/extract"
	"github.com/viant/imgsim/internal/logging"
	"github.com/viant/imgsim/vector"
	"golang.org/x/sync/semaphore"
)

// Store maps image names to feature vectors for one dataset. Names keep
// their first insertion position; re-adding a name overwrites its values.
type Store struct {
	opts   Options
	log    *logging.Logger
	writer *semaphore.Weighted

	mu         sync.RWMutex
	state      State
	order      []string
	vectors    map[string]vector.Vector
	dim        int
	generation uint64
}

// New constructs an Empty store; nothing is read until first access.
func New(opts Options) (*Store, error) {
	if err := opts.init(); err != nil {
		return nil, err
	}
	return &Store{
		opts:    opts,
		log:     opts.Logger.WithDataset(opts.Dataset),
		writer:  datasetLock(opts.Dataset),
		vectors: map[string]vector.Vector{},
	}, nil
}

// Dataset returns the dataset name.
func (s *Store) Dataset() string { return s.opts.Dataset }

// State returns the current population state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Generation increments on every change to the vectors.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Len returns the number of vectors currently held, without populating.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Dimension returns the shared vector length, or the extractor's declared
// dimension while the store is empty, or 0 when unknown.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension()
}

func (s *Store) dimension() int {
	if s.dim > 0 {
		return s.dim
	}
	if s.opts.Extractor != nil {
		return s.opts.Extractor.Dimension()
	}
	return 0
}

// Kind reports what the stored vector positions represent.
func (s *Store) Kind() vector.Kind {
	if s.opts.Kind != "" {
		return s.opts.Kind
	}
	if s.opts.Extractor != nil {
		return s.opts.Extractor.Kind()
	}
	return vector.KindDense
}

// EnsurePopulated loads the dataset from the backend, or extracts it from
// the source directory when the backend misses. It returns
// vector.ErrConfiguration, leaving the store empty, when neither is possible.
func (s *Store) EnsurePopulated(ctx context.Context) error {
	if s.State() == Populated {
		return nil
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	if s.State() == Populated {
		return nil
	}
	return s.populate(ctx, true)
}

// Rebuild discards the current vectors and extracts the dataset again from
// the source directory, ignoring the cache and checkpoints, then persists it.
func (s *Store) Rebuild(ctx context.Context) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.populate(ctx, false)
}

// populate runs with the dataset lock held. On failure the previous state
// and content are kept.
func (s *Store) populate(ctx context.Context, useCache bool) error {
	prev := s.State()
	s.setState(Loading)
	if useCache && s.opts.Backend != nil {
		vectors, err := s.opts.Backend.Load(ctx, s.opts.Dataset)
		switch {
		case err == nil:
			s.log.LogCache(ctx, "load", len(vectors), nil)
			if err := s.replace(vectors); err != nil {
				s.setState(prev)
				return err
			}
			s.log.LogPopulate(ctx, "cache", len(vectors), 0, nil)
			return nil
		case errors.Is(err, cache.ErrMiss):
			s.log.DebugContext(ctx, "cache miss")
		default:
			s.setState(prev)
			s.log.LogCache(ctx, "load", 0, err)
			return fmt.Errorf("store: load %s: %w", s.opts.Dataset, err)
		}
	}
	if s.opts.Extractor == nil || s.opts.SourceDir == "" {
		s.setState(prev)
		err := fmt.Errorf("store: %w: dataset %q has no cache and no extractor or source directory", vector.ErrConfiguration, s.opts.Dataset)
		s.log.LogPopulate(ctx, "none", 0, 0, err)
		return err
	}
	vectors, failed, err := s.extractAll(ctx, useCache)
	if err != nil {
		s.setState(prev)
		s.log.LogPopulate(ctx, s.opts.SourceDir, 0, failed, err)
		return err
	}
	if err := s.replace(vectors); err != nil {
		s.setState(prev)
		return err
	}
	s.log.LogPopulate(ctx, s.opts.SourceDir, len(vectors), failed, nil)
	return s.persist(ctx)
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// replace installs vectors as the full content and marks the store
// Populated. Repeated names keep the first position and the last values.
func (s *Store) replace(vectors []vector.Vector) error {
	dim, err := vector.Dimension(vectors)
	if err != nil {
		return err
	}
	if want := s.declaredDim(); want > 0 && len(vectors) > 0 && dim != want {
		return &vector.DimensionMismatchError{Expected: want, Actual: dim, Owner: vectors[0].Owner}
	}
	order := make([]string, 0, len(vectors))
	byName := make(map[string]vector.Vector, len(vectors))
	for _, v := range vectors {
		if _, ok := byName[v.Owner]; !ok {
			order = append(order, v.Owner)
		}
		byName[v.Owner] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order, s.vectors, s.dim = order, byName, dim
	s.state = Populated
	s.generation++
	return nil
}

func (s *Store) declaredDim() int {
	if s.opts.Extractor != nil {
		return s.opts.Extractor.Dimension()
	}
	return 0
}

// Vectors returns all vectors in insertion order, populating first. On a
// configuration error the result is empty and the error is returned.
func (s *Store) Vectors(ctx context.Context) ([]vector.Vector, error) {
	if err := s.EnsurePopulated(ctx); err != nil {
		return []vector.Vector{}, err
	}
	vectors, _ := s.Snapshot()
	return vectors, nil
}

// Snapshot copies the current vectors (no population) together with the
// generation they belong to.
func (s *Store) Snapshot() ([]vector.Vector, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]vector.Vector, len(s.order))
	for i, name := range s.order {
		out[i] = s.vectors[name]
	}
	return out, s.generation
}

// Names returns the owner names in insertion order, populating first.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	if err := s.EnsurePopulated(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}

// Contains reports whether name is held, without populating.
func (s *Store) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vectors[name]
	return ok
}

// Consolidate replaces the content with every checkpoint shard of the
// dataset, ordered by shard file name, and persists it.
func (s *Store) Consolidate(ctx context.Context) error {
	if s.opts.Checkpoint == nil {
		return fmt.Errorf("store: %w: dataset %q has no checkpoint directory", vector.ErrConfiguration, s.opts.Dataset)
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	vectors, err := s.opts.Checkpoint.Collect(s.opts.Dataset)
	if errors.Is(err, cache.ErrMiss) || (err == nil && len(vectors) == 0) {
		return fmt.Errorf("store: %w: no checkpoints for dataset %q", vector.ErrConfiguration, s.opts.Dataset)
	}
	if err != nil {
		return err
	}
	if err := s.replace(vectors); err != nil {
		return err
	}
	s.log.LogPopulate(ctx, "checkpoints", len(vectors), 0, nil)
	return s.persist(ctx)
}

// Vector returns the vector of name, populating first. Unknown names follow
// the missing policy.
func (s *Store) Vector(ctx context.Context, name string) (vector.Vector, error) {
	if err := s.EnsurePopulated(ctx); err != nil {
		return vector.Vector{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.vectors[name]; ok {
		return v, nil
	}
	if s.opts.Missing == MissingZero {
		if dim := s.dimension(); dim > 0 {
			return vector.Zero(name, dim), nil
		}
	}
	return vector.Vector{}, vector.NotFound(name)
}

// Add inserts or overwrites v and persists it. Indexes built earlier are not
// updated.
func (s *Store) Add(ctx context.Context, v vector.Vector) error {
	if v.Owner == "" {
		return fmt.Errorf("store: vector owner is empty")
	}
	if err := s.EnsurePopulated(ctx); err != nil && !errors.Is(err, vector.ErrConfiguration) {
		return err
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	if dim := s.dimension(); dim > 0 && v.Dim() != dim {
		s.mu.Unlock()
		return &vector.DimensionMismatchError{Expected: dim, Actual: v.Dim(), Owner: v.Owner}
	}
	if _, ok := s.vectors[v.Owner]; !ok {
		s.order = append(s.order, v.Owner)
	}
	s.vectors[v.Owner] = v
	s.dim = v.Dim()
	s.state = Populated
	s.generation++
	s.mu.Unlock()

	if appender, ok := s.opts.Backend.(cache.Appender); ok {
		err := appender.Append(ctx, s.opts.Dataset, v)
		s.log.LogCache(ctx, "append", 1, err)
		return err
	}
	return s.persist(ctx)
}

// AddImage extracts the image at path, stores it under its base name and
// returns the new vector.
func (s *Store) AddImage(ctx context.Context, path string) (vector.Vector, error) {
	if s.opts.Extractor == nil {
		return vector.Vector{}, fmt.Errorf("store: %w: no extractor for dataset %q", vector.ErrConfiguration, s.opts.Dataset)
	}
	name := filepath.Base(path)
	if !extract.IsImage(name) {
		return vector.Vector{}, &vector.ExtractionError{Path: path, Err: fmt.Errorf("unsupported image type")}
	}
	values, err := s.opts.Extractor.Extract(ctx, path)
	if err != nil {
		return vector.Vector{}, &vector.ExtractionError{Path: path, Err: err}
	}
	v := vector.Vector{Owner: name, Values: values}
	if err := s.Add(ctx, v); err != nil {
		return vector.Vector{}, err
	}
	return v, nil
}

// Remove evicts name and persists the change.
func (s *Store) Remove(ctx context.Context, name string) error {
	if err := s.EnsurePopulated(ctx); err != nil {
		return err
	}
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	if _, ok := s.vectors[name]; !ok {
		s.mu.Unlock()
		return vector.NotFound(name)
	}
	delete(s.vectors, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.generation++
	s.mu.Unlock()

	if remover, ok := s.opts.Backend.(cache.Remover); ok {
		err := remover.Remove(ctx, s.opts.Dataset, name)
		s.log.LogCache(ctx, "remove", 1, err)
		return err
	}
	return s.persist(ctx)
}

// persist saves the full snapshot; callers hold the dataset lock.
func (s *Store) persist(ctx context.Context) error {
	if s.opts.Backend == nil {
		return nil
	}
	vectors, _ := s.Snapshot()
	err := s.opts.Backend.Save(ctx, s.opts.Dataset, vectors)
	s.log.LogCache(ctx, "save", len(vectors), err)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", s.opts.Dataset, err)
	}
	return nil
}
