package bruteforce

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/viant/imgsim/index"
	"github.com/viant/imgsim/vector"
)

// Index is an exact brute-force kNN index.
type Index struct {
	metric   vector.Metric
	distance vector.DistanceFunc
	snap     *index.Snapshot
}

// New returns an empty index using metric (Euclidean when empty).
func New(metric vector.Metric) *Index {
	return &Index{metric: metric, distance: metric.Func()}
}

// Build loads the snapshot.
func (i *Index) Build(vectors []vector.Vector) error {
	snap, err := index.NewSnapshot(vectors)
	if err != nil {
		return err
	}
	if i.distance == nil {
		i.distance = i.metric.Func()
	}
	i.snap = snap
	return nil
}

// Query returns the min(k, N) nearest neighbours of query.
func (i *Index) Query(query []float32, k int) ([]index.Neighbor, error) {
	if i.snap == nil {
		return nil, fmt.Errorf("bruteforce: index not built")
	}
	if err := i.snap.CheckQuery(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	h := make(candidates, 0, k+1)
	for pos, vec := range i.snap.Vectors {
		c := candidate{pos: pos, dist: i.distance(query, vec)}
		if h.Len() < k {
			heap.Push(&h, c)
		} else if c.before(h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}
	sort.Slice(h, func(a, b int) bool { return h[a].before(h[b]) })
	out := make([]index.Neighbor, len(h))
	for n, c := range h {
		out[n] = index.Neighbor{Name: i.snap.Names[c.pos], Distance: c.dist}
	}
	return out, nil
}

// QueryExcludingSelf queries with the stored vector of name and removes name
// from the result.
func (i *Index) QueryExcludingSelf(name string, k int) ([]index.Neighbor, error) {
	if i.snap == nil {
		return nil, fmt.Errorf("bruteforce: index not built")
	}
	query, err := i.snap.Lookup(name)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	hits, err := i.Query(query, k+1)
	if err != nil {
		return nil, err
	}
	return index.ExcludeSelf(hits, name, k), nil
}

func (i *Index) Contains(name string) bool {
	if i.snap == nil {
		return false
	}
	_, ok := i.snap.Position[name]
	return ok
}

func (i *Index) Len() int {
	if i.snap == nil {
		return 0
	}
	return len(i.snap.Names)
}

func (i *Index) Dimension() int {
	if i.snap == nil {
		return 0
	}
	return i.snap.Dim
}

type candidate struct {
	pos  int
	dist float64
}

// before orders by distance, then by snapshot position.
func (c candidate) before(o candidate) bool {
	if c.dist != o.dist {
		return c.dist < o.dist
	}
	return c.pos < o.pos
}

// candidates is a max-heap: the root is the worst kept candidate.
type candidates []candidate

func (h candidates) Len() int            { return len(h) }
func (h candidates) Less(a, b int) bool  { return h[b].before(h[a]) }
func (h candidates) Swap(a, b int)       { h[a], h[b] = h[b], h[a] }
func (h *candidates) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candidates) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

var _ index.Index = (*Index)(nil)
