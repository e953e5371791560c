package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/viant/imgsim/cache"
	"github.com/viant/imgsim/category"
	"github.com/viant/imgsim/config"
	"github.com/viant/imgsim/extract"
	"github.com/viant/imgsim/index"
	"github.com/viant/imgsim/internal/logging"
	"github.com/viant/imgsim/search"
	"github.com/viant/imgsim/store"
	"github.com/viant/imgsim/vector"
)

// app holds the components wired from one configuration.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	store   *store.Store
	search  *search.Service
	closers []io.Closer
}

func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataset != "" {
		cfg.Dataset = dataset
	}
	return newApp(cfg, os.Stderr)
}

func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	log, err := logging.New(logOut, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	backend, closer, err := newBackend(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	extractor, err := newExtractor(cfg.Extractor)
	if err != nil {
		a.Close()
		return nil, err
	}
	missing, _ := store.ParseMissingPolicy(cfg.Missing)
	kind, _ := vector.ParseKind(cfg.Extractor.Kind)
	opts := store.Options{
		Dataset:   cfg.Dataset,
		SourceDir: cfg.SourceDir,
		Extractor: extractor,
		Backend:   backend,
		Missing:   missing,
		Workers:   cfg.Workers,
		Logger:    log,
	}
	if cfg.Extractor.Kind != "" {
		opts.Kind = kind
	}
	if cfg.CheckpointDir != "" {
		opts.Checkpoint = cache.NewShards(cfg.CheckpointDir)
	}
	if a.store, err = store.New(opts); err != nil {
		a.Close()
		return nil, err
	}

	var labels []string
	if cfg.Labels != "" {
		if labels, err = category.LoadLabels(cfg.Labels); err != nil {
			a.Close()
			return nil, err
		}
	}
	indexKind, _ := index.ParseKind(cfg.Index.Kind)
	metric, _ := vector.ParseMetric(cfg.Index.Metric)
	searchOpts := search.Options{Kind: indexKind, Metric: metric, Labels: labels, Logger: log}
	if nearester, ok := backend.(search.Nearester); ok && indexKind == index.KindSQL {
		searchOpts.Nearester = nearester
	}
	a.search = search.New(a.store, searchOpts)
	return a, nil
}

func newBackend(c config.Cache) (cache.Backend, io.Closer, error) {
	switch c.Type {
	case "", config.CacheFile:
		return cache.NewFile(c.Dir), nil, nil
	case config.CacheSQLite, config.CachePostgres, config.CacheMySQL:
		s, err := cache.OpenSQL(cache.Dialect(c.Type), c.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.CacheBadger:
		b, err := cache.NewBadger(cache.BadgerOptions{Dir: c.Dir})
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	case config.CacheMinio:
		m, err := cache.NewMinio(cache.MinioOptions{
			Endpoint:  c.Endpoint,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			Secure:    c.Secure,
			Bucket:    c.Bucket,
			Prefix:    c.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return m, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown cache type %q", c.Type)
}

// newExtractor returns nil for type none, leaving the store read-only.
func newExtractor(c config.Extractor) (extract.Extractor, error) {
	switch c.Type {
	case "", config.ExtractorNone:
		return nil, nil
	case config.ExtractorHistogram:
		return &extract.Histogram{Bins: c.Bins, Normalize: c.Normalize}, nil
	case config.ExtractorRemote:
		timeout, err := c.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		kind, err := vector.ParseKind(c.Kind)
		if err != nil {
			return nil, err
		}
		r := extract.NewRemote(c.Endpoint, c.Dimension, kind, timeout)
		r.Normalize = c.Normalize
		return r, nil
	}
	return nil, fmt.Errorf("unknown extractor type %q", c.Type)
}
