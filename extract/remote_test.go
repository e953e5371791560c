package extract

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/imgsim/vector"
)

func TestRemoteDense(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(body))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"features":[3,4]}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	r := NewRemote(srv.URL, 2, vector.KindDense, time.Second)
	r.Normalize = true
	got, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, got, 1e-6)
}

func TestRemoteDetections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detections":[{"class_id":1,"score":0.5},{"class_id":1,"score":0.75}]}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	r := NewRemote(srv.URL, 3, vector.KindCategoryScores, 0)
	got, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.75, 0}, got)
}

func TestRemoteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Image-Name") == "bad.png" {
			http.Error(w, "model exploded", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"features":[1]}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	short := filepath.Join(dir, "short.png")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(short, []byte("x"), 0o644))

	r := NewRemote(srv.URL, 2, "", time.Second)
	_, err := r.Extract(context.Background(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model exploded")

	_, err = r.Extract(context.Background(), short)
	require.ErrorIs(t, err, vector.ErrDimensionMismatch)
}
