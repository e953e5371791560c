package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset: coco-val
source_dir: ./images
workers: 4
missing: zero
extractor:
  type: remote
  endpoint: http://localhost:8080/segment
  dimension: 81
  kind: categories
  timeout: 5s
cache:
  type: sqlite
  dsn: file:features.db
index:
  kind: brute
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "coco-val", cfg.Dataset)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "zero", cfg.Missing)
	assert.Equal(t, ExtractorRemote, cfg.Extractor.Type)
	assert.Equal(t, 81, cfg.Extractor.Dimension)
	timeout, err := cfg.Extractor.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)
	assert.Equal(t, CacheSQLite, cfg.Cache.Type)
	assert.Equal(t, "brute", cfg.Index.Kind)
	// Unset keys keep their defaults.
	assert.Equal(t, "euclidean", cfg.Index.Metric)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(c *Config)
	}{
		{"dataset", func(c *Config) { c.Dataset = "" }},
		{"workers", func(c *Config) { c.Workers = -1 }},
		{"missing", func(c *Config) { c.Missing = "sometimes" }},
		{"index kind", func(c *Config) { c.Index.Kind = "hnsw" }},
		{"metric", func(c *Config) { c.Index.Metric = "manhattan" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"extractor type", func(c *Config) { c.Extractor.Type = "magic" }},
		{"remote endpoint", func(c *Config) { c.Extractor = Extractor{Type: ExtractorRemote, Dimension: 3} }},
		{"remote dimension", func(c *Config) { c.Extractor = Extractor{Type: ExtractorRemote, Endpoint: "http://x"} }},
		{"timeout", func(c *Config) { c.Extractor.Timeout = "soon" }},
		{"cache type", func(c *Config) { c.Cache.Type = "redis" }},
		{"file dir", func(c *Config) { c.Cache.Dir = "" }},
		{"sql dsn", func(c *Config) { c.Cache = Cache{Type: CachePostgres} }},
		{"minio bucket", func(c *Config) { c.Cache = Cache{Type: CacheMinio, Endpoint: "localhost:9000"} }},
		{"sql index cache", func(c *Config) { c.Index.Kind = "sql" }},
		{"sql index metric", func(c *Config) {
			c.Index = Index{Kind: "sql", Metric: "cosine"}
			c.Cache = Cache{Type: CacheSQLite, DSN: "features.db"}
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateSQLIndex(t *testing.T) {
	cfg := Default()
	cfg.Index.Kind = "sql"
	cfg.Cache = Cache{Type: CacheSQLite, DSN: "features.db"}
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgsim.yaml")
	cfg := Default()
	cfg.Dataset = "holidays"
	cfg.Extractor = Extractor{Type: ExtractorHistogram, Bins: 4, Timeout: "1m"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
