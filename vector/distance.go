package vector

import (
	"fmt"
	"math"
	"strings"
)

// CosineSimilarity computes the cosine similarity between two vectors. It
// returns an error if the vectors have different lengths or if either vector
// has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: cosine similarity on empty vectors")
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, fmt.Errorf("vector: cosine similarity with zero-magnitude vector")
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// L2Distance computes the Euclidean (L2) distance between two vectors. It
// returns an error if the vectors have different lengths.
func L2Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}
	return l2(a, b), nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// cosineDistance is 1 - cosine similarity. A zero-magnitude operand is
// treated as orthogonal to everything (distance 1), except another zero
// vector (distance 0).
func cosineDistance(a, b []float32) float64 {
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	switch {
	case na2 == 0 && nb2 == 0:
		return 0
	case na2 == 0 || nb2 == 0:
		return 1
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2))
}

// Metric names a distance function. The zero value means Euclidean.
type Metric string

const (
	Euclidean Metric = "euclidean"
	Cosine    Metric = "cosine"
)

// DistanceFunc computes the distance between two equal-length vectors.
// Smaller means more similar.
type DistanceFunc func(a, b []float32) float64

// ParseMetric resolves a metric name; empty resolves to Euclidean.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "euclidean", "l2":
		return Euclidean, nil
	case "cosine", "cos":
		return Cosine, nil
	}
	return "", fmt.Errorf("vector: unknown metric %q", s)
}

// Func resolves the callable distance implementation. Unknown metrics fall
// back to Euclidean.
func (m Metric) Func() DistanceFunc {
	if m == Cosine {
		return cosineDistance
	}
	return l2
}

// String returns the metric name with the Euclidean default applied.
func (m Metric) String() string {
	if m == "" {
		return string(Euclidean)
	}
	return string(m)
}
