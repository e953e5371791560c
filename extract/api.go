package extract

import (
	"context"
	"fmt"
	"math"

	"github.com/viant/imgsim/vector"
)

// Extractor turns a raw image file into a feature vector of a stable length.
//
// Implementations can call any vision model (classification network,
// instance-segmentation model, remote inference service) as long as every
// call returns Dimension() values. The store and index remain model-agnostic
// and only depend on the numeric vectors.
type Extractor interface {
	// Extract computes the feature values for the image at path.
	Extract(ctx context.Context, path string) ([]float32, error)

	// Dimension returns the length of every vector produced, or 0 when it is
	// only known after the first extraction.
	Dimension() int

	// Kind reports what the vector positions represent.
	Kind() vector.Kind
}

// ExtractFunc converts an image path into feature values.
type ExtractFunc func(ctx context.Context, path string) ([]float32, error)

// Func adapts an ExtractFunc into an Extractor.
type Func struct {
	Fn  ExtractFunc
	Dim int
	K   vector.Kind
}

// FromFunc returns an Extractor backed by fn.
func FromFunc(fn ExtractFunc, dim int, kind vector.Kind) *Func {
	return &Func{Fn: fn, Dim: dim, K: kind}
}

func (f *Func) Extract(ctx context.Context, path string) ([]float32, error) {
	if f.Fn == nil {
		return nil, fmt.Errorf("extract: ExtractFunc is nil")
	}
	values, err := f.Fn(ctx, path)
	if err != nil {
		return nil, err
	}
	if f.Dim > 0 && len(values) != f.Dim {
		return nil, &vector.DimensionMismatchError{Expected: f.Dim, Actual: len(values), Owner: path}
	}
	return values, nil
}

func (f *Func) Dimension() int { return f.Dim }

func (f *Func) Kind() vector.Kind {
	if f.K == "" {
		return vector.KindDense
	}
	return f.K
}

// Normalize scales values in place to unit L2 norm. Zero vectors are left
// unchanged.
func Normalize(values []float32) []float32 {
	var sum float64
	for _, v := range values {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return values
	}
	norm := math.Sqrt(sum)
	for i, v := range values {
		values[i] = float32(float64(v) / norm)
	}
	return values
}
