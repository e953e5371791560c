package vector

import (
	"fmt"
	"strings"
)

// Vector is a fixed-length feature vector extracted from a single image.
// Vectors are treated as immutable once created; callers must not modify
// Values after handing a Vector to a store or index.
type Vector struct {
	// Owner is the name of the source image, unique within a dataset.
	Owner string

	// Values holds the feature values produced by the extractor.
	Values []float32
}

// New returns a Vector owning a private copy of values.
func New(owner string, values []float32) Vector {
	return Vector{Owner: owner, Values: append([]float32(nil), values...)}
}

// Zero returns an all-zero vector of the given dimension.
func Zero(owner string, dim int) Vector {
	return Vector{Owner: owner, Values: make([]float32, dim)}
}

// Dim returns the vector length.
func (v Vector) Dim() int { return len(v.Values) }

// Equal reports whether both vectors have the same owner and bit-identical values.
func (v Vector) Equal(o Vector) bool {
	if v.Owner != o.Owner || len(v.Values) != len(o.Values) {
		return false
	}
	for i := range v.Values {
		if v.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

// Kind describes what the positions of a vector represent.
type Kind string

const (
	// KindDense marks opaque embeddings such as classification logits.
	KindDense Kind = "dense"

	// KindCategoryScores marks vectors whose positions map 1:1 to a fixed
	// label taxonomy, e.g. per-category segmentation scores.
	KindCategoryScores Kind = "categories"
)

// ParseKind resolves a kind name; empty resolves to KindDense.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dense", "classification":
		return KindDense, nil
	case "categories", "category", "segmentation":
		return KindCategoryScores, nil
	}
	return "", fmt.Errorf("vector: unknown kind %q", s)
}

// Dimension validates that all vectors share one length and returns it.
// An empty slice yields 0.
func Dimension(vectors []Vector) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	dim := vectors[0].Dim()
	for _, v := range vectors[1:] {
		if v.Dim() != dim {
			return 0, &DimensionMismatchError{Expected: dim, Actual: v.Dim(), Owner: v.Owner}
		}
	}
	return dim, nil
}
