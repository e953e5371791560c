package tree

// Insertion and pruning follow the cover tree layout of
// github.com/viant/gds/tree/cover; queries are read-only once frozen.

import (
	"container/heap"
	"sort"
)

// DefaultBase is the level expansion factor used when none is given.
const DefaultBase float32 = 1.3

// pruneSlack absorbs float32 rounding in the accumulated node radii.
const pruneSlack = 1e-5

// Tree is a cover tree for kNN queries. Insert all points, call Freeze, then
// query; frozen trees are safe for concurrent queries.
type Tree struct {
	root     *node
	base     float32
	distance func(p1, p2 *Point) float32
	size     int
	frozen   bool
}

// New constructs an empty Euclidean tree.
func New(base float32) *Tree {
	if base <= 1 {
		base = DefaultBase
	}
	return &Tree{base: base, distance: EuclideanDistance}
}

// Len returns the number of inserted points.
func (t *Tree) Len() int { return t.size }

// Insert adds a point. Inserting after Freeze unfreezes the tree.
func (t *Tree) Insert(point *Point) {
	t.size++
	t.frozen = false
	if t.root == nil {
		t.root = newNode(point, 0, t.base)
		return
	}
	d := float64(t.distance(point, t.root.point))
	if d >= t.root.cover {
		level := t.root.level
		for cover := t.root.cover; d >= cover; cover *= float64(t.base) {
			level++
		}
		t.root.setLevel(level, t.base)
	}
	n := t.root
	for {
		var next *node
		for _, child := range n.children {
			if float64(t.distance(point, child.point)) < child.cover {
				next = child
				break
			}
		}
		if next == nil {
			n.children = append(n.children, newNode(point, n.level-1, t.base))
			return
		}
		n = next
	}
}

// Freeze computes the subtree radii used for pruning.
func (t *Tree) Freeze() {
	if t.root != nil {
		t.radius(t.root)
	}
	t.frozen = true
}

func (t *Tree) radius(n *node) float32 {
	var r float32
	for _, child := range n.children {
		if d := t.distance(n.point, child.point) + t.radius(child); d > r {
			r = d
		}
	}
	n.radius = r
	return r
}

// Frozen reports whether the tree is ready for queries.
func (t *Tree) Frozen() bool { return t.frozen }

// KNearestNeighbors runs a depth-first kNN search and returns up to k
// neighbours ordered by (distance, position).
func (t *Tree) KNearestNeighbors(query *Point, k int) []Neighbor {
	if t.root == nil || k <= 0 {
		return nil
	}
	h := make(neighbors, 0, k+1)
	t.search(t.root, t.distance(query, t.root.point), query, k, &h)
	result := make([]Neighbor, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(Neighbor)
	}
	return result
}

func (t *Tree) search(n *node, dc float32, query *Point, k int, h *neighbors) {
	candidate := Neighbor{Point: n.point, Distance: dc}
	if h.Len() < k {
		heap.Push(h, candidate)
	} else if candidate.before((*h)[0]) {
		(*h)[0] = candidate
		heap.Fix(h, 0)
	}
	if len(n.children) == 0 {
		return
	}
	type childDist struct {
		child *node
		dist  float32
	}
	cds := make([]childDist, len(n.children))
	for i, child := range n.children {
		cds[i] = childDist{child: child, dist: t.distance(query, child.point)}
	}
	sort.SliceStable(cds, func(i, j int) bool { return cds[i].dist < cds[j].dist })
	for _, cd := range cds {
		if h.Len() == k {
			worst := (*h)[0].Distance
			if cd.dist-cd.child.radius > worst*(1+pruneSlack)+pruneSlack {
				continue
			}
		}
		t.search(cd.child, cd.dist, query, k, h)
	}
}
