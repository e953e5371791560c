package category

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// COCO is the COCO label taxonomy including the background class at
// position 0, as used by Mask R-CNN style segmentation models.
var COCO = []string{
	"BG", "person", "bicycle", "car", "motorcycle", "airplane",
	"bus", "train", "truck", "boat", "traffic light",
	"fire hydrant", "stop sign", "parking meter", "bench", "bird",
	"cat", "dog", "horse", "sheep", "cow", "elephant", "bear",
	"zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard",
	"surfboard", "tennis racket", "bottle", "wine glass", "cup",
	"fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza",
	"donut", "cake", "chair", "couch", "potted plant", "bed",
	"dining table", "toilet", "tv", "laptop", "mouse", "remote",
	"keyboard", "cell phone", "microwave", "oven", "toaster",
	"sink", "refrigerator", "book", "clock", "vase", "scissors",
	"teddy bear", "hair drier", "toothbrush",
}

// LoadLabels reads a label table from a YAML file holding a list of strings.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("category: read labels: %w", err)
	}
	var labels []string
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("category: parse %s: %w", path, err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("category: %s holds no labels", path)
	}
	return labels, nil
}
