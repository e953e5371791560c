package extract

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"

	"github.com/viant/imgsim/vector"
	_ "golang.org/x/image/tiff" // register TIFF decoder
)

// DefaultBins is the per-channel bin count used when Histogram.Bins is unset.
const DefaultBins = 8

// Histogram is a model-free Extractor computing a per-channel RGB colour
// histogram. The vector holds Bins values for red, then green, then blue,
// each the fraction of pixels falling into the bin, optionally L2-normalised.
type Histogram struct {
	Bins      int
	Normalize bool
}

func (h *Histogram) bins() int {
	if h.Bins <= 0 {
		return DefaultBins
	}
	return h.Bins
}

func (h *Histogram) Extract(ctx context.Context, path string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("extract: decode %s: %w", path, err)
	}
	return h.FromImage(img), nil
}

// FromImage computes the histogram of an already decoded image.
func (h *Histogram) FromImage(img image.Image) []float32 {
	bins := h.bins()
	out := make([]float32, 3*bins)
	b := img.Bounds()
	pixels := b.Dx() * b.Dy()
	if pixels == 0 {
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out[int(r)*bins>>16]++
			out[bins+int(g)*bins>>16]++
			out[2*bins+int(bl)*bins>>16]++
		}
	}
	for i := range out {
		out[i] /= float32(pixels)
	}
	if h.Normalize {
		Normalize(out)
	}
	return out
}

func (h *Histogram) Dimension() int { return 3 * h.bins() }

func (h *Histogram) Kind() vector.Kind { return vector.KindDense }
