package category

import (
	"sort"

	"github.com/viant/imgsim/vector"
)

// CategoriesOn maps every position of v holding a positive score to its label.
// labels must have exactly v.Dim() entries.
func CategoriesOn(v vector.Vector, labels []string) (map[string]float64, error) {
	if len(labels) != v.Dim() {
		return nil, &vector.DimensionMismatchError{Expected: len(labels), Actual: v.Dim(), Owner: v.Owner}
	}
	out := make(map[string]float64)
	for i, score := range v.Values {
		if score > 0 {
			out[labels[i]] = float64(score)
		}
	}
	return out, nil
}

// Interpreter applies a label table to vectors whose kind supports it.
type Interpreter struct {
	Labels []string
}

// New returns an Interpreter over labels; nil means COCO.
func New(labels []string) *Interpreter {
	if labels == nil {
		labels = COCO
	}
	return &Interpreter{Labels: labels}
}

// Interpret returns the categories present in v. It refuses dense
// embeddings, whose positions carry no label meaning.
func (i *Interpreter) Interpret(kind vector.Kind, v vector.Vector) (map[string]float64, error) {
	if kind != vector.KindCategoryScores {
		return nil, vector.ErrUnsupportedKind
	}
	return CategoriesOn(v, i.Labels)
}

// Category is a single label with its score.
type Category struct {
	Label string
	Score float64
}

// Rank orders a category mapping by descending score, then label.
func Rank(categories map[string]float64) []Category {
	out := make([]Category, 0, len(categories))
	for label, score := range categories {
		out = append(out, Category{Label: label, Score: score})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Label < out[b].Label
	})
	return out
}
