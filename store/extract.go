package store

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/viant/imgsim/extract"
	"github.com/viant/imgsim/vector"
	"golang.org/x/sync/errgroup"
)

// extractAll runs the extractor over every image of the source directory
// with at most Workers concurrent calls. Per-image failures are logged and
// skipped; cancellation aborts the batch. The result keeps listing order.
func (s *Store) extractAll(ctx context.Context, resume bool) ([]vector.Vector, int, error) {
	names, err := extract.ListImages(s.opts.SourceDir)
	if err != nil {
		return nil, 0, err
	}
	s.log.InfoContext(ctx, "extracting features", "source", s.opts.SourceDir, "images", len(names), "workers", s.opts.Workers)

	results := make([]*vector.Vector, len(names))
	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := s.extractOne(gctx, name, resume)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				s.log.LogExtractFailure(gctx, filepath.Join(s.opts.SourceDir, name), err)
				return nil
			}
			results[i] = &v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, int(failed.Load()), err
	}
	vectors := make([]vector.Vector, 0, len(results))
	for _, v := range results {
		if v != nil {
			vectors = append(vectors, *v)
		}
	}
	if _, err := vector.Dimension(vectors); err != nil {
		return nil, int(failed.Load()), err
	}
	return vectors, int(failed.Load()), nil
}

func (s *Store) extractOne(ctx context.Context, name string, resume bool) (vector.Vector, error) {
	if resume && s.opts.Checkpoint != nil {
		v, ok, err := s.opts.Checkpoint.Get(s.opts.Dataset, name)
		if err != nil {
			s.log.WarnContext(ctx, "ignoring unreadable checkpoint", "name", name, "error", err)
		} else if ok {
			return v, nil
		}
	}
	path := filepath.Join(s.opts.SourceDir, name)
	values, err := s.opts.Extractor.Extract(ctx, path)
	if err != nil {
		return vector.Vector{}, &vector.ExtractionError{Path: path, Err: err}
	}
	v := vector.Vector{Owner: name, Values: values}
	if s.opts.Checkpoint != nil {
		if err := s.opts.Checkpoint.Put(s.opts.Dataset, v); err != nil {
			s.log.WarnContext(ctx, "checkpoint write failed", "name", name, "error", err)
		}
	}
	return v, nil
}
