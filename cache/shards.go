package cache

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/imgsim/vector"
	"github.com/vmihailenco/msgpack/v5"
)

const shardExt = ".msgpack"

// Shards checkpoints one vector per image under Dir/<key>/, so a long
// extraction batch can skip images already processed after an interruption.
type Shards struct {
	Dir string
}

// NewShards returns a Shards rooted at dir.
func NewShards(dir string) *Shards { return &Shards{Dir: dir} }

type shard struct {
	Owner  string    `msgpack:"owner"`
	Values []float32 `msgpack:"values"`
}

func (s *Shards) datasetDir(dataset string) (string, error) {
	key, err := Key(dataset)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, key), nil
}

func (s *Shards) path(dataset, owner string) (string, error) {
	dir, err := s.datasetDir(dataset)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, url.PathEscape(owner)+shardExt), nil
}

// Put writes the shard for one image.
func (s *Shards) Put(dataset string, v vector.Vector) error {
	p, err := s.path(dataset, v.Owner)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cache: create shard dir: %w", err)
	}
	data, err := msgpack.Marshal(shard{Owner: v.Owner, Values: v.Values})
	if err != nil {
		return err
	}
	return writeAtomic(p, data)
}

// Get returns the shard for one image; ok is false when none exists.
func (s *Shards) Get(dataset, owner string) (v vector.Vector, ok bool, err error) {
	p, err := s.path(dataset, owner)
	if err != nil {
		return v, false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if v, err = decodeShard(data); err != nil {
		return v, false, fmt.Errorf("cache: shard %s: %w", p, err)
	}
	return v, true, nil
}

// Collect consolidates every shard of dataset, ordered by shard file name.
func (s *Shards) Collect(dataset string) ([]vector.Vector, error) {
	dir, err := s.datasetDir(dataset)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var out []vector.Vector
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), shardExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		v, err := decodeShard(data)
		if err != nil {
			return nil, fmt.Errorf("cache: shard %s: %w", e.Name(), err)
		}
		out = append(out, v)
	}
	if _, err := vector.Dimension(out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeShard(data []byte) (vector.Vector, error) {
	var sh shard
	if err := msgpack.Unmarshal(data, &sh); err != nil {
		return vector.Vector{}, err
	}
	return vector.Vector{Owner: sh.Owner, Values: sh.Values}, nil
}
