package tree

// Neighbor is a kNN candidate.
type Neighbor struct {
	Point    *Point
	Distance float32
}

func (n Neighbor) before(o Neighbor) bool {
	if n.Distance != o.Distance {
		return n.Distance < o.Distance
	}
	return n.Point.Position < o.Point.Position
}

// neighbors is a max-heap keyed by (distance, position); the root is the
// worst candidate kept so far.
type neighbors []Neighbor

func (h neighbors) Len() int            { return len(h) }
func (h neighbors) Less(i, j int) bool  { return h[j].before(h[i]) }
func (h neighbors) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *neighbors) Push(x interface{}) { *h = append(*h, x.(Neighbor)) }
func (h *neighbors) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
