package cover

import (
	"fmt"
	"sort"

	"github.com/viant/imgsim/index"
	"github.com/viant/imgsim/internal/cover/tree"
	"github.com/viant/imgsim/vector"
	"github.com/viant/vec/search"
)

// oversample widens each tree query so candidates that float32 rounding
// ranks just outside k are still rescored.
const oversample = 4

// Index implements index.Index over a Euclidean cover tree. Tree distances
// are float32; results are rescored with the float64 metric and ordered by
// (distance, position), so they agree with the brute-force index.
//
// Under the cosine metric the tree holds the embedding produced by
// cosineEmbed, whose Euclidean distance is sqrt(2*cosineDistance); the tree
// then ranks candidates in cosine order while pruning stays sound.
type Index struct {
	base     float32
	metric   vector.Metric
	distance vector.DistanceFunc
	snap     *index.Snapshot
	tree     *tree.Tree
}

// New returns an empty cover index; base <= 1 selects tree.DefaultBase.
func New(metric vector.Metric, base float32) *Index {
	return &Index{base: base, metric: metric, distance: metric.Func()}
}

func (i *Index) Build(vectors []vector.Vector) error {
	snap, err := index.NewSnapshot(vectors)
	if err != nil {
		return err
	}
	t := tree.New(i.base)
	for pos, v := range snap.Vectors {
		t.Insert(tree.NewPoint(pos, i.embed(v)))
	}
	t.Freeze()
	if i.distance == nil {
		i.distance = i.metric.Func()
	}
	i.snap, i.tree = snap, t
	return nil
}

func (i *Index) Query(query []float32, k int) ([]index.Neighbor, error) {
	if i.snap == nil {
		return nil, fmt.Errorf("cover: index not built")
	}
	if err := i.snap.CheckQuery(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	hits := i.tree.KNearestNeighbors(tree.NewPoint(-1, i.embed(query)), k+oversample)
	type scored struct {
		pos  int
		dist float64
	}
	candidates := make([]scored, len(hits))
	for n, hit := range hits {
		pos := hit.Point.Position
		candidates[n] = scored{pos: pos, dist: i.distance(query, i.snap.Vectors[pos])}
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].dist != candidates[b].dist {
			return candidates[a].dist < candidates[b].dist
		}
		return candidates[a].pos < candidates[b].pos
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]index.Neighbor, len(candidates))
	for n, c := range candidates {
		out[n] = index.Neighbor{Name: i.snap.Names[c.pos], Distance: c.dist}
	}
	return out, nil
}

func (i *Index) QueryExcludingSelf(name string, k int) ([]index.Neighbor, error) {
	if i.snap == nil {
		return nil, fmt.Errorf("cover: index not built")
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

func (i *Index) embed(v []float32) []float32 {
	if i.metric == vector.Cosine {
		return cosineEmbed(v)
	}
	return v
}

// cosineEmbed maps v to (v/|v|, 0), or to (0, ..., 0, 1) for a zero vector.
// Unit vectors are sqrt(2*(1-cos)) apart, and the zero point is sqrt(2) from
// every unit vector, matching a cosine distance of 1.
func cosineEmbed(v []float32) []float32 {
	out := make([]float32, len(v)+1)
	mag := search.Float32s(v).Magnitude()
	if mag == 0 {
		out[len(v)] = 1
		return out
	}
	for j, x := range v {
		out[j] = x / mag
	}
	return out
}

var _ index.Index = (*Index)(nil)
