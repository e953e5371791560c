package tree

import "github.com/viant/vec/search"

// EuclideanDistance returns the L2 distance between two points. The tree
// relies on it being a metric: pruning uses the triangle inequality.
func EuclideanDistance(p1, p2 *Point) float32 {
	return search.Float32s(p1.Vector).EuclideanDistance(p2.Vector)
}
