package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a store can neither load a cache nor
	// extract features (no extractor or no source directory).
	ErrConfiguration = errors.New("vector: configuration error")

	// ErrNotFound is returned when a query references an unknown owner name.
	ErrNotFound = errors.New("vector: not found")

	// ErrEmptyCollection is returned when an index is built over zero vectors.
	ErrEmptyCollection = errors.New("vector: empty collection")

	// ErrDimensionMismatch is matched by every *DimensionMismatchError.
	ErrDimensionMismatch = errors.New("vector: dimension mismatch")

	// ErrExtraction is matched by every *ExtractionError.
	ErrExtraction = errors.New("vector: extraction failure")

	// ErrUnsupportedKind is returned when an operation needs a different
	// vector kind, e.g. category interpretation of a dense embedding.
	ErrUnsupportedKind = errors.New("vector: unsupported vector kind")
)

// DimensionMismatchError indicates a vector length disagreement against a
// store, an index or a label table.
type DimensionMismatchError struct {
	Expected int
	Actual   int
	// Owner is the offending vector's owner, when known.
	Owner string
}

func (e *DimensionMismatchError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("vector: dimension mismatch for %q: expected %d, got %d", e.Owner, e.Expected, e.Actual)
	}
	return fmt.Sprintf("vector: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrDimensionMismatch) hold.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// ExtractionError reports a single image that failed feature extraction.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("vector: extraction failed for %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExtraction) hold.
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// NotFound wraps ErrNotFound with the missing owner name.
func NotFound(owner string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, owner)
}
