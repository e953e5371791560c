package extract

import (
	"context"
	"fmt"

	"github.com/viant/imgsim/vector"
)

// Detection is one object instance found by a segmentation model.
type Detection struct {
	ClassID int     `json:"class_id"`
	Score   float32 `json:"score"`
}

// Segmenter runs an instance-segmentation model over an image.
type Segmenter interface {
	Segment(ctx context.Context, path string) ([]Detection, error)
}

// SegmenterFunc adapts a function into a Segmenter.
type SegmenterFunc func(ctx context.Context, path string) ([]Detection, error)

func (f SegmenterFunc) Segment(ctx context.Context, path string) ([]Detection, error) {
	return f(ctx, path)
}

// Mode selects how detections are folded into a category vector.
type Mode int

const (
	// ModeScore keeps the highest detection score per category.
	ModeScore Mode = iota
	// ModeCount counts detections per category.
	ModeCount
)

// ScoreVector builds a vector of length n holding, per category, the highest
// score among its detections.
func ScoreVector(dets []Detection, n int) ([]float32, error) {
	out := make([]float32, n)
	for _, d := range dets {
		if d.ClassID < 0 || d.ClassID >= n {
			return nil, fmt.Errorf("extract: class id %d out of range [0,%d)", d.ClassID, n)
		}
		if out[d.ClassID] < d.Score {
			out[d.ClassID] = d.Score
		}
	}
	return out, nil
}

// CountVector builds a vector of length n holding the number of detections
// per category.
func CountVector(dets []Detection, n int) ([]float32, error) {
	out := make([]float32, n)
	for _, d := range dets {
		if d.ClassID < 0 || d.ClassID >= n {
			return nil, fmt.Errorf("extract: class id %d out of range [0,%d)", d.ClassID, n)
		}
		out[d.ClassID]++
	}
	return out, nil
}

// Segmentation is an Extractor producing category-score vectors from a
// Segmenter. Categories is the size of the label taxonomy (81 for COCO
// including background).
type Segmentation struct {
	Segmenter  Segmenter
	Categories int
	Mode       Mode
}

func (s *Segmentation) Extract(ctx context.Context, path string) ([]float32, error) {
	if s.Segmenter == nil {
		return nil, fmt.Errorf("extract: segmenter is nil")
	}
	dets, err := s.Segmenter.Segment(ctx, path)
	if err != nil {
		return nil, err
	}
	if s.Mode == ModeCount {
		return CountVector(dets, s.Categories)
	}
	return ScoreVector(dets, s.Categories)
}

func (s *Segmentation) Dimension() int { return s.Categories }

func (s *Segmentation) Kind() vector.Kind { return vector.KindCategoryScores }
