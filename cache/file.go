package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/imgsim/vector"
)

// File stores each dataset as two files in Dir:
// features_<key>.zst (vectors) and imagenames_<key>.msgpack (owner names).
type File struct {
	Dir string
}

// NewFile returns a File backend rooted at dir.
func NewFile(dir string) *File { return &File{Dir: dir} }

func (f *File) paths(dataset string) (string, string, error) {
	key, err := Key(dataset)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(f.Dir, "features_"+key+".zst"), filepath.Join(f.Dir, "imagenames_"+key+".msgpack"), nil
}

// Save writes both artifacts atomically (write to a temp file, then rename).
func (f *File) Save(ctx context.Context, dataset string, vectors []vector.Vector) error {
	vecPath, namesPath, err := f.paths(dataset)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a, err := encode(vectors)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}
	if err := writeAtomic(vecPath, a.vectors); err != nil {
		return err
	}
	return writeAtomic(namesPath, a.names)
}

// Load reads both artifacts; a missing file yields ErrMiss.
func (f *File) Load(ctx context.Context, dataset string) ([]vector.Vector, error) {
	vecPath, namesPath, err := f.paths(dataset)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var a artifacts
	if a.vectors, err = readArtifact(vecPath); err != nil {
		return nil, err
	}
	if a.names, err = readArtifact(namesPath); err != nil {
		return nil, err
	}
	return decode(a)
}

func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", path, err)
	}
	return data, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cache: rename %s: %w", path, err)
	}
	return nil
}

var _ Backend = (*File)(nil)
