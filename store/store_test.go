package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/imgsim/cache"
	"github.com/viant/imgsim/extract"
	"github.com/viant/imgsim/vector"
)

// writeImages writes fake images whose content is a comma-separated vector.
func writeImages(t *testing.T, dir string, images map[string]string) {
	t.Helper()
	for name, content := range images {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

type countingExtractor struct {
	*extract.Func
	calls atomic.Int64
}

func (c *countingExtractor) Extract(ctx context.Context, path string) ([]float32, error) {
	c.calls.Add(1)
	return c.Func.Extract(ctx, path)
}

func textExtractor(dim int) *countingExtractor {
	fn := func(_ context.Context, path string) ([]float32, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(data)) == "corrupt" {
			return nil, errors.New("cannot decode image")
		}
		var out []float32
		for _, field := range strings.Split(strings.TrimSpace(string(data)), ",") {
			f, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, err
			}
			out = append(out, float32(f))
		}
		return out, nil
	}
	return &countingExtractor{Func: extract.FromFunc(fn, dim, vector.KindDense)}
}

func scenarioDir(t *testing.T) string {
	dir := t.TempDir()
	writeImages(t, dir, map[string]string{
		"a.png":     "0,0,1",
		"b.jpg":     "0,1,0",
		"c.JPEG":    "1,0,0",
		"d.tiff":    "0,0,0.9",
		"notes.txt": "9,9,9",
	})
	return dir
}

func TestEnsurePopulatedExtractsAndPersists(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()
	ex := textExtractor(3)
	s, err := New(Options{Dataset: t.Name(), SourceDir: scenarioDir(t), Extractor: ex, Backend: backend})
	require.NoError(t, err)
	assert.Equal(t, Empty, s.State())

	vectors, err := s.Vectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, Populated, s.State())
	names := make([]string, len(vectors))
	for i, v := range vectors {
		names[i] = v.Owner
	}
	assert.Equal(t, []string{"a.png", "b.jpg", "c.JPEG", "d.tiff"}, names)
	assert.Equal(t, 3, s.Dimension())
	assert.Equal(t, 1, backend.Saves())
	assert.EqualValues(t, 4, ex.calls.Load())

	// Second access does not re-extract.
	_, err = s.Vectors(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, ex.calls.Load())

	// A new store on the same backend loads from cache.
	other, err := New(Options{Dataset: t.Name(), Backend: backend})
	require.NoError(t, err)
	loaded, err := other.Vectors(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 4)
	for i := range loaded {
		assert.True(t, loaded[i].Equal(vectors[i]))
	}
}

func TestEnsurePopulatedEmptyDirectory(t *testing.T) {
	backend := cache.NewMemory()
	s, err := New(Options{Dataset: t.Name(), SourceDir: t.TempDir(), Extractor: textExtractor(3), Backend: backend})
	require.NoError(t, err)

	vectors, err := s.Vectors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Equal(t, Populated, s.State())
	assert.Equal(t, 1, backend.Saves())
}

func TestEnsurePopulatedConfigurationError(t *testing.T) {
	s, err := New(Options{Dataset: t.Name(), Backend: cache.NewMemory()})
	require.NoError(t, err)

	vectors, err := s.Vectors(context.Background())
	require.ErrorIs(t, err, vector.ErrConfiguration)
	assert.Empty(t, vectors)
	assert.Equal(t, Empty, s.State())

	_, err = New(Options{})
	require.ErrorIs(t, err, vector.ErrConfiguration)
}

func TestExtractionFailuresAreSkipped(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, map[string]string{
		"good.png":  "1,2",
		"bad.png":   "corrupt",
		"short.png": "1",
		"later.png": "3,4",
	})
	s, err := New(Options{Dataset: t.Name(), SourceDir: dir, Extractor: textExtractor(2), Workers: 2})
	require.NoError(t, err)

	names, err := s.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"good.png", "later.png"}, names)
}

func TestMixedDimensionsAreFatal(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, map[string]string{"a.png": "1,2", "b.png": "1,2,3"})
	s, err := New(Options{Dataset: t.Name(), SourceDir: dir, Extractor: textExtractor(0)})
	require.NoError(t, err)

	err = s.EnsurePopulated(context.Background())
	require.ErrorIs(t, err, vector.ErrDimensionMismatch)
	assert.Equal(t, Empty, s.State())
}

func TestCancelledExtraction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := New(Options{Dataset: t.Name(), SourceDir: scenarioDir(t), Extractor: textExtractor(3)})
	require.NoError(t, err)
	require.ErrorIs(t, s.EnsurePopulated(ctx), context.Canceled)
	assert.Equal(t, Empty, s.State())
}

func TestVectorMissingPolicy(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		policy  MissingPolicy
		wantErr bool
	}{
		{policy: MissingFail, wantErr: true},
		{policy: MissingZero},
	} {
		t.Run(string(tc.policy), func(t *testing.T) {
			s, err := New(Options{Dataset: t.Name(), SourceDir: scenarioDir(t), Extractor: textExtractor(3), Missing: tc.policy})
			require.NoError(t, err)

			v, err := s.Vector(ctx, "a.png")
			require.NoError(t, err)
			assert.Equal(t, []float32{0, 0, 1}, v.Values)

			v, err = s.Vector(ctx, "missing.png")
			if tc.wantErr {
				require.ErrorIs(t, err, vector.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, vector.Zero("missing.png", 3), v)
		})
	}

	p, err := ParseMissingPolicy("ZERO")
	require.NoError(t, err)
	assert.Equal(t, MissingZero, p)
	_, err = ParseMissingPolicy("maybe")
	assert.Error(t, err)
}

func TestAddOverwritesAndPersists(t *testing.T) {
	ctx := context.Background()
	backend := cache.NewMemory()
	s, err := New(Options{Dataset: t.Name(), SourceDir: scenarioDir(t), Extractor: textExtractor(3), Backend: backend})
	require.NoError(t, err)
	require.NoError(t, s.EnsurePopulated(ctx))
	gen := s.Generation()

	require.NoError(t, s.Add(ctx, vector.New("e.png", []float32{1, 1, 1})))
	require.NoError(t, s.Add(ctx, vector.New("a.png", []float32{0, 1, 1})))
	assert.Greater(t, s.Generation(), gen)

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.jpg", "c.JPEG", "d.tiff", "e.png"}, names)
	v, err := s.Vector(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 1}, v.Values)

	err = s.Add(ctx, vector.New("f.png", []float32{1}))
	require.ErrorIs(t, err, vector.ErrDimensionMismatch)

	loaded, err := backend.Load(ctx, t.Name())
	require.NoError(t, err)
	assert.Len(t, loaded, 5)
}

func TestAddImageAndRemove(t *testing.T) {
	ctx := context.Background()
	dir := scenarioDir(t)
	upload := filepath.Join(t.TempDir(), "upload.gif")
	require.NoError(t, os.WriteFile(upload, []byte("0.5,0.5,0"), 0o644))
	s, err := New(Options{Dataset: t.Name(), SourceDir: dir, Extractor: textExtractor(3), Backend: cache.NewFile(t.TempDir())})
	require.NoError(t, err)

	v, err := s.AddImage(ctx, upload)
	require.NoError(t, err)
	assert.Equal(t, "upload.gif", v.Owner)
	assert.Equal(t, 5, s.Len())

	_, err = s.AddImage(ctx, filepath.Join(dir, "notes.txt"))
	require.ErrorIs(t, err, vector.ErrExtraction)

	require.NoError(t, s.Remove(ctx, "b.jpg"))
	require.ErrorIs(t, s.Remove(ctx, "b.jpg"), vector.ErrNotFound)
	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "c.JPEG", "d.tiff", "upload.gif"}, names)

	readonly, err := New(Options{Dataset: "other", Backend: cache.NewMemory()})
	require.NoError(t, err)
	_, err = readonly.AddImage(ctx, upload)
	require.ErrorIs(t, err, vector.ErrConfiguration)
}

func TestRebuildIgnoresCache(t *testing.T) {
	ctx := context.Background()
	dir := scenarioDir(t)
	backend := cache.NewMemory()
	require.NoError(t, backend.Save(ctx, t.Name(), []vector.Vector{vector.New("stale.png", []float32{1, 1, 1})}))
	ex := textExtractor(3)
	s, err := New(Options{Dataset: t.Name(), SourceDir: dir, Extractor: ex, Backend: backend})
	require.NoError(t, err)

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.png"}, names)
	assert.Zero(t, ex.calls.Load())

	require.NoError(t, s.Rebuild(ctx))
	names, err = s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.jpg", "c.JPEG", "d.tiff"}, names)
	loaded, err := backend.Load(ctx, t.Name())
	require.NoError(t, err)
	assert.Len(t, loaded, 4)
}

func TestCheckpointResumes(t *testing.T) {
	ctx := context.Background()
	dir := scenarioDir(t)
	shards := cache.NewShards(t.TempDir())
	require.NoError(t, shards.Put(t.Name(), vector.New("a.png", []float32{7, 7, 7})))
	ex := textExtractor(3)
	s, err := New(Options{Dataset: t.Name(), SourceDir: dir, Extractor: ex, Checkpoint: shards})
	require.NoError(t, err)

	v, err := s.Vector(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 7, 7}, v.Values)
	assert.EqualValues(t, 3, ex.calls.Load())

	collected, err := shards.Collect(t.Name())
	require.NoError(t, err)
	assert.Len(t, collected, 4)
}

func TestConcurrentPopulationExtractsOnce(t *testing.T) {
	ctx := context.Background()
	dir := scenarioDir(t)
	backend := cache.NewMemory()
	ex := textExtractor(3)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := New(Options{Dataset: t.Name(), SourceDir: dir, Extractor: ex, Backend: backend})
			if !assert.NoError(t, err) {
				return
			}
			vectors, err := s.Vectors(ctx)
			assert.NoError(t, err)
			assert.Len(t, vectors, 4)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 4, ex.calls.Load())
	assert.Equal(t, 1, backend.Saves())
}

func TestKind(t *testing.T) {
	s, err := New(Options{Dataset: t.Name()})
	require.NoError(t, err)
	assert.Equal(t, vector.KindDense, s.Kind())

	s, err = New(Options{Dataset: t.Name(), Extractor: extract.FromFunc(nil, 81, vector.KindCategoryScores)})
	require.NoError(t, err)
	assert.Equal(t, vector.KindCategoryScores, s.Kind())
	assert.Equal(t, 81, s.Dimension())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "empty", Empty.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "populated", Populated.String())
}

func TestRebuildFailureKeepsContent(t *testing.T) {
	ctx := context.Background()
	dir := scenarioDir(t)
	s, err := New(Options{Dataset: t.Name(), SourceDir: dir, Extractor: textExtractor(3)})
	require.NoError(t, err)
	require.NoError(t, s.EnsurePopulated(ctx))
	gen := s.Generation()

	require.NoError(t, os.RemoveAll(dir))
	require.Error(t, s.Rebuild(ctx))
	assert.Equal(t, Populated, s.State())
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 3, s.Dimension())
	assert.Equal(t, gen, s.Generation())

	vectors, snapGen := s.Snapshot()
	assert.Len(t, vectors, 4)
	assert.Equal(t, gen, snapGen)
}

func TestConsolidateCheckpoints(t *testing.T) {
	ctx := context.Background()
	shards := cache.NewShards(t.TempDir())
	backend := cache.NewMemory()
	require.NoError(t, shards.Put(t.Name(), vector.New("b.png", []float32{0, 1})))
	require.NoError(t, shards.Put(t.Name(), vector.New("a.png", []float32{1, 0})))

	s, err := New(Options{Dataset: t.Name(), Checkpoint: shards, Backend: backend})
	require.NoError(t, err)
	require.NoError(t, s.Consolidate(ctx))
	assert.Equal(t, Populated, s.State())
	assert.True(t, s.Contains("a.png"))
	assert.False(t, s.Contains("c.png"))

	loaded, err := backend.Load(ctx, t.Name())
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a.png", loaded[0].Owner)
	assert.Equal(t, "b.png", loaded[1].Owner)

	empty, err := New(Options{Dataset: "no-shards", Checkpoint: cache.NewShards(t.TempDir())})
	require.NoError(t, err)
	require.ErrorIs(t, empty.Consolidate(ctx), vector.ErrConfiguration)

	none, err := New(Options{Dataset: "no-checkpoint"})
	require.NoError(t, err)
	require.ErrorIs(t, none.Consolidate(ctx), vector.ErrConfiguration)
}
