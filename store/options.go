package store

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/viant/imgsim/cache"
	"github.com/viant/imgsim/extract"
	"github.com/viant/imgsim/internal/logging"
	"github.com/viant/imgsim/vector"
)

// MissingPolicy decides what Vector returns for an unknown name.
type MissingPolicy string

const (
	// MissingFail returns vector.ErrNotFound.
	MissingFail MissingPolicy = "fail"
	// MissingZero returns an all-zero vector of the store dimension.
	MissingZero MissingPolicy = "zero"
)

// ParseMissingPolicy resolves a policy name; empty resolves to MissingFail.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingFail:
		return MissingFail, nil
	case MissingZero:
		return MissingZero, nil
	}
	return "", fmt.Errorf("store: unknown missing policy %q", s)
}

// Options configures a Store.
type Options struct {
	// Dataset keys the cache and the population lock. Required.
	Dataset string
	// SourceDir holds the raw images.
	SourceDir string
	// Extractor is optional; without it the store is read-only against
	// Backend.
	Extractor extract.Extractor
	// Backend persists the dataset; nil keeps it in memory only.
	Backend cache.Backend
	// Checkpoint, when set, stores one shard per extracted image so an
	// interrupted batch resumes where it stopped.
	Checkpoint *cache.Shards
	// Missing selects the unknown-name behaviour of Vector.
	Missing MissingPolicy
	// Workers bounds concurrent extractions; 0 means GOMAXPROCS.
	Workers int
	// Kind overrides the extractor's vector kind.
	Kind   vector.Kind
	Logger *logging.Logger
}

func (o *Options) init() error {
	if o.Dataset == "" {
		return fmt.Errorf("store: %w: dataset name is empty", vector.ErrConfiguration)
	}
	if o.Missing == "" {
		o.Missing = MissingFail
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = logging.Noop()
	}
	return nil
}
