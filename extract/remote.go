package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/viant/imgsim/vector"
)

// Remote is an Extractor that posts the raw image bytes to a model-serving
// endpoint. The endpoint answers with JSON, either
//
//	{"features": [0.1, 0.2, ...]}
//
// for dense models, or
//
//	{"detections": [{"class_id": 1, "score": 0.93}, ...]}
//
// for segmentation models, which is folded into a score vector of length Dim.
type Remote struct {
	Endpoint  string
	Dim       int
	K         vector.Kind
	Normalize bool
	Client    *http.Client
}

// NewRemote returns a Remote extractor with a client bounded by timeout.
func NewRemote(endpoint string, dim int, kind vector.Kind, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		Endpoint: endpoint,
		Dim:      dim,
		K:        kind,
		Client:   &http.Client{Timeout: timeout},
	}
}

type remoteResponse struct {
	Features   []float32   `json:"features"`
	Detections []Detection `json:"detections"`
}

func (r *Remote) Extract(ctx context.Context, path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Image-Name", filepath.Base(path))

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("extract: %s returned %s: %s", r.Endpoint, resp.Status, bytes.TrimSpace(body))
	}
	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("extract: decode response: %w", err)
	}

	values := out.Features
	if r.Kind() == vector.KindCategoryScores && values == nil {
		if values, err = ScoreVector(out.Detections, r.Dim); err != nil {
			return nil, err
		}
	}
	if r.Dim > 0 && len(values) != r.Dim {
		return nil, &vector.DimensionMismatchError{Expected: r.Dim, Actual: len(values), Owner: path}
	}
	if r.Normalize {
		Normalize(values)
	}
	return values, nil
}

func (r *Remote) Dimension() int { return r.Dim }

func (r *Remote) Kind() vector.Kind {
	if r.K == "" {
		return vector.KindDense
	}
	return r.K
}
