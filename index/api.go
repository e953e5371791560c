package index

import (
	"fmt"

	"github.com/viant/imgsim/vector"
)

// Neighbor is a single query hit.
type Neighbor struct {
	Name     string
	Distance float64
}

// Index is built once from a vector snapshot and then queried read-only, so
// queries are safe to run concurrently. Rebuilding is the only way to reflect
// vectors added to a store after the build.
type Index interface {
	// Build constructs the index from vectors. It fails with
	// vector.ErrEmptyCollection when vectors is empty and with a
	// *vector.DimensionMismatchError when lengths disagree.
	Build(vectors []vector.Vector) error

	// Query returns the min(k, N) nearest vectors ordered by ascending
	// distance; ties keep snapshot insertion order.
	Query(query []float32, k int) ([]Neighbor, error)

	// QueryExcludingSelf queries with the stored vector of name and never
	// returns name itself. See ExcludeSelf for the result size.
	QueryExcludingSelf(name string, k int) ([]Neighbor, error)

	// Contains reports whether name is part of the snapshot.
	Contains(name string) bool

	// Len returns the snapshot size.
	Len() int

	// Dimension returns the vector length shared by the snapshot.
	Dimension() int
}

// Snapshot is the validated, read-only content of a built index.
type Snapshot struct {
	Names    []string
	Vectors  [][]float32
	Dim      int
	Position map[string]int
}

// NewSnapshot validates vectors and copies their slice headers; the float
// data itself is shared and must not be mutated. A repeated name keeps its
// first position and takes the values of its last occurrence.
func NewSnapshot(vectors []vector.Vector) (*Snapshot, error) {
	if len(vectors) == 0 {
		return nil, vector.ErrEmptyCollection
	}
	dim, err := vector.Dimension(vectors)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{
		Names:    make([]string, 0, len(vectors)),
		Vectors:  make([][]float32, 0, len(vectors)),
		Dim:      dim,
		Position: make(map[string]int, len(vectors)),
	}
	for _, v := range vectors {
		if pos, ok := s.Position[v.Owner]; ok {
			s.Vectors[pos] = v.Values
			continue
		}
		s.Position[v.Owner] = len(s.Names)
		s.Names = append(s.Names, v.Owner)
		s.Vectors = append(s.Vectors, v.Values)
	}
	return s, nil
}

// Lookup returns the stored vector of name.
func (s *Snapshot) Lookup(name string) ([]float32, error) {
	pos, ok := s.Position[name]
	if !ok {
		return nil, vector.NotFound(name)
	}
	return s.Vectors[pos], nil
}

// CheckQuery validates a query vector against the snapshot dimension.
func (s *Snapshot) CheckQuery(query []float32) error {
	if len(query) != s.Dim {
		return &vector.DimensionMismatchError{Expected: s.Dim, Actual: len(query)}
	}
	return nil
}

// ExcludeSelf post-processes a query made with k+1 neighbours on the
// vector of name: the entry for name is removed if present, otherwise the
// single worst entry is dropped. The result therefore holds min(k, N-1)
// entries when name is in the snapshot.
func ExcludeSelf(neighbors []Neighbor, name string, k int) []Neighbor {
	out := make([]Neighbor, 0, len(neighbors))
	removed := false
	for _, n := range neighbors {
		if !removed && n.Name == name {
			removed = true
			continue
		}
		out = append(out, n)
	}
	if !removed && len(out) > k {
		out = out[:len(out)-1]
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Kind names an index implementation.
type Kind string

const (
	KindAuto  Kind = "auto"
	KindBrute Kind = "brute"
	KindCover Kind = "cover"
	// KindSQL runs queries inside a SQL backend instead of an in-memory
	// index; it resolves to itself.
	KindSQL Kind = "sql"
)

// ParseKind resolves an index kind name; empty resolves to KindAuto.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindAuto:
		return KindAuto, nil
	case KindBrute, KindCover, KindSQL:
		return Kind(s), nil
	}
	return "", fmt.Errorf("index: unknown kind %q", s)
}

const (
	autoCoverMinDocs            = 4000
	autoCoverMinDim             = 64
	autoCoverMinDensity float64 = 16
)

// Resolve picks a concrete kind for a snapshot of n vectors of dimension dim.
// Auto chooses the cover tree only for large, dense corpora.
func (k Kind) Resolve(n, dim int) Kind {
	switch k {
	case KindBrute, KindCover, KindSQL:
		return k
	}
	if n >= autoCoverMinDocs && dim >= autoCoverMinDim && float64(n)/float64(dim) >= autoCoverMinDensity {
		return KindCover
	}
	return KindBrute
}
