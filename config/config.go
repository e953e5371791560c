// Package config loads the imgsim YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/viant/imgsim/index"
	"github.com/viant/imgsim/internal/logging"
	"github.com/viant/imgsim/store"
	"github.com/viant/imgsim/vector"
)

// Config is the root configuration document.
type Config struct {
	Dataset       string    `yaml:"dataset"`
	SourceDir     string    `yaml:"source_dir"`
	Workers       int       `yaml:"workers"`
	Missing       string    `yaml:"missing"`
	Extractor     Extractor `yaml:"extractor"`
	Cache         Cache     `yaml:"cache"`
	CheckpointDir string    `yaml:"checkpoint_dir"`
	// Labels is a YAML list of category labels; empty means COCO.
	Labels string `yaml:"labels"`
	Index  Index  `yaml:"index"`
	Log    Log    `yaml:"log"`
}

// Extractor selects the feature extractor.
type Extractor struct {
	// Type is none, histogram or remote.
	Type      string `yaml:"type"`
	Bins      int    `yaml:"bins"`
	Endpoint  string `yaml:"endpoint"`
	Dimension int    `yaml:"dimension"`
	Kind      string `yaml:"kind"`
	Normalize bool   `yaml:"normalize"`
	Timeout   string `yaml:"timeout"`
}

// Cache selects the persistence backend.
type Cache struct {
	// Type is file, sqlite, postgres, mysql, badger or minio.
	Type      string `yaml:"type"`
	Dir       string `yaml:"dir"`
	DSN       string `yaml:"dsn"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// Index selects the similarity index.
type Index struct {
	Kind   string `yaml:"kind"`
	Metric string `yaml:"metric"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	ExtractorNone      = "none"
	ExtractorHistogram = "histogram"
	ExtractorRemote    = "remote"

	CacheFile     = "file"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheMySQL    = "mysql"
	CacheBadger   = "badger"
	CacheMinio    = "minio"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Dataset:   "default",
		Missing:   string(store.MissingFail),
		Extractor: Extractor{Type: ExtractorNone, Timeout: "30s"},
		Cache:     Cache{Type: CacheFile, Dir: ".imgsim"},
		Index:     Index{Kind: string(index.KindAuto), Metric: string(vector.Euclidean)},
		Log:       Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks names and required fields.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if _, err := store.ParseMissingPolicy(c.Missing); err != nil {
		return err
	}
	kind, err := index.ParseKind(c.Index.Kind)
	if err != nil {
		return err
	}
	metric, err := vector.ParseMetric(c.Index.Metric)
	if err != nil {
		return err
	}
	if kind == index.KindSQL {
		if c.Cache.Type != CacheSQLite {
			return fmt.Errorf("index.kind sql requires the sqlite cache")
		}
		if metric != vector.Euclidean {
			return fmt.Errorf("index.kind sql supports the euclidean metric only")
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if err := c.Extractor.validate(); err != nil {
		return err
	}
	return c.Cache.validate()
}

func (e *Extractor) validate() error {
	if _, err := vector.ParseKind(e.Kind); err != nil {
		return err
	}
	if _, err := e.TimeoutDuration(); err != nil {
		return err
	}
	switch e.Type {
	case "", ExtractorNone, ExtractorHistogram:
		return nil
	case ExtractorRemote:
		if e.Endpoint == "" {
			return fmt.Errorf("extractor.endpoint is required for remote extractor")
		}
		if e.Dimension <= 0 {
			return fmt.Errorf("extractor.dimension must be positive for remote extractor")
		}
		return nil
	}
	return fmt.Errorf("unknown extractor type %q", e.Type)
}

// TimeoutDuration parses Timeout; empty means zero.
func (e *Extractor) TimeoutDuration() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("extractor.timeout: %w", err)
	}
	return d, nil
}

func (c *Cache) validate() error {
	switch c.Type {
	case "", CacheFile, CacheBadger:
		if c.Dir == "" {
			return fmt.Errorf("cache.dir is required for %s cache", c.typeName())
		}
	case CacheSQLite, CachePostgres, CacheMySQL:
		if c.DSN == "" {
			return fmt.Errorf("cache.dsn is required for %s cache", c.Type)
		}
	case CacheMinio:
		if c.Endpoint == "" || c.Bucket == "" {
			return fmt.Errorf("cache.endpoint and cache.bucket are required for minio cache")
		}
	default:
		return fmt.Errorf("unknown cache type %q", c.Type)
	}
	return nil
}

func (c *Cache) typeName() string {
	if c.Type == "" {
		return CacheFile
	}
	return c.Type
}
