package bruteforce

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/imgsim/index"
	"github.com/viant/imgsim/vector"
)

func scenario() []vector.Vector {
	return []vector.Vector{
		vector.New("a", []float32{0, 0, 1}),
		vector.New("b", []float32{0, 1, 0}),
		vector.New("c", []float32{1, 0, 0}),
		vector.New("d", []float32{0, 0, 0.9}),
	}
}

func build(t *testing.T, vectors []vector.Vector) *Index {
	t.Helper()
	idx := New("")
	require.NoError(t, idx.Build(vectors))
	return idx
}

func TestBuildErrors(t *testing.T) {
	require.ErrorIs(t, New("").Build(nil), vector.ErrEmptyCollection)
	err := New("").Build([]vector.Vector{vector.New("a", []float32{1}), vector.New("b", []float32{1, 2})})
	require.ErrorIs(t, err, vector.ErrDimensionMismatch)

	_, err = New("").Query([]float32{1}, 1)
	require.Error(t, err)
}

func TestQueryExcludingSelfScenario(t *testing.T) {
	idx := build(t, scenario())

	got, err := idx.QueryExcludingSelf("a", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].Name)
	assert.InDelta(t, 0.1, got[0].Distance, 1e-6)
	assert.Equal(t, "b", got[1].Name, "b and c tie; insertion order wins")
	assert.InDelta(t, math.Sqrt2, got[1].Distance, 1e-6)
}

func TestQueryExcludingSelfRepeatedOwner(t *testing.T) {
	idx := build(t, []vector.Vector{
		vector.New("a", []float32{0, 0, 1}),
		vector.New("b", []float32{0, 1, 0}),
		vector.New("a", []float32{0, 0, 0.9}),
	})
	assert.Equal(t, 2, idx.Len())

	got, err := idx.QueryExcludingSelf("a", 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Name)
}

func TestQueryExcludingSelfUnknown(t *testing.T) {
	idx := build(t, scenario())
	_, err := idx.QueryExcludingSelf("zzz", 2)
	require.ErrorIs(t, err, vector.ErrNotFound)
}

func TestQueryExcludingSelfNeverReturnsSelf(t *testing.T) {
	vectors := randomVectors(rand.New(rand.NewSource(7)), 50, 8)
	idx := build(t, vectors)
	for _, v := range vectors {
		for _, k := range []int{1, 5, 49, 60} {
			got, err := idx.QueryExcludingSelf(v.Owner, k)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), k)
			assert.Len(t, got, min(k, len(vectors)-1))
			for _, n := range got {
				assert.NotEqual(t, v.Owner, n.Name)
			}
		}
	}
}

func TestQueryIsSortedAndSized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vectors := randomVectors(rng, 200, 16)
	idx := build(t, vectors)
	assert.Equal(t, 200, idx.Len())
	assert.Equal(t, 16, idx.Dimension())

	for _, k := range []int{1, 3, 10, 200, 500} {
		q := randomVectors(rng, 1, 16)[0].Values
		got, err := idx.Query(q, k)
		require.NoError(t, err)
		require.Len(t, got, min(k, len(vectors)))
		assert.True(t, sort.SliceIsSorted(got, func(a, b int) bool { return got[a].Distance < got[b].Distance }))

		// The k-th distance matches a full sort.
		all := make([]float64, len(vectors))
		for n, v := range vectors {
			all[n], _ = vector.L2Distance(q, v.Values)
		}
		sort.Float64s(all)
		assert.InDelta(t, all[len(got)-1], got[len(got)-1].Distance, 1e-9)
	}
}

func TestQueryReflexive(t *testing.T) {
	vectors := randomVectors(rand.New(rand.NewSource(1)), 30, 5)
	idx := build(t, vectors)
	for _, v := range vectors {
		got, err := idx.Query(v.Values, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, v.Owner, got[0].Name)
		assert.Equal(t, 0.0, got[0].Distance)
	}
}

func TestIdenticalVectorsOrderedByInsertion(t *testing.T) {
	idx := build(t, []vector.Vector{
		vector.New("x", []float32{5, 5}),
		vector.New("first", []float32{1, 1}),
		vector.New("second", []float32{1, 1}),
	})
	for _, q := range []string{"first", "second"} {
		v, err := idx.snap.Lookup(q)
		require.NoError(t, err)
		got, err := idx.Query(v, 2)
		require.NoError(t, err)
		assert.Equal(t, []index.Neighbor{{Name: "first"}, {Name: "second"}}, got)
	}
}

func TestQueryDimensionMismatch(t *testing.T) {
	idx := build(t, scenario())
	_, err := idx.Query([]float32{1, 2}, 1)
	require.ErrorIs(t, err, vector.ErrDimensionMismatch)

	got, err := idx.Query([]float32{1, 2, 3}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCosineMetric(t *testing.T) {
	idx := New(vector.Cosine)
	require.NoError(t, idx.Build([]vector.Vector{
		vector.New("far-but-aligned", []float32{10, 0}),
		vector.New("near-but-diagonal", []float32{0.5, 0.5}),
	}))
	got, err := idx.Query([]float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "far-but-aligned", got[0].Name)
}

func randomVectors(rng *rand.Rand, n, dim int) []vector.Vector {
	out := make([]vector.Vector, n)
	for i := range out {
		values := make([]float32, dim)
		for j := range values {
			values[j] = rng.Float32()
		}
		out[i] = vector.Vector{Owner: "img" + string(rune('A'+i%26)) + string(rune('a'+i/26)), Values: values}
	}
	return out
}
