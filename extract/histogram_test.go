package extract

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestHistogramExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.png")
	writePNG(t, path, color.RGBA{R: 255, A: 255})

	h := &Histogram{Bins: 4}
	assert.Equal(t, 12, h.Dimension())

	got, err := h.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 12)
	assert.Equal(t, float32(1), got[3], "all red values in the top red bin")
	assert.Equal(t, float32(1), got[4], "green channel is zero")
	assert.Equal(t, float32(1), got[8], "blue channel is zero")
}

func TestHistogramRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err := (&Histogram{}).Extract(context.Background(), path)
	require.Error(t, err)
}

func TestHistogramNormalized(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	got := (&Histogram{Bins: 2, Normalize: true}).FromImage(img)
	var sum float64
	for _, v := range got {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}
