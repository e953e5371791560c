package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/viant/imgsim/vector"
)

// Minio is a Backend storing both artifacts of a dataset as objects in a
// MinIO or other S3-compatible bucket.
type Minio struct {
	client *minio.Client
	bucket string
	prefix string
}

// MinioOptions configures a MinIO client.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Bucket    string
	// Prefix is prepended to every object name (e.g. "features/").
	Prefix string
}

// NewMinio creates a client for opts and returns the backend.
func NewMinio(opts MinioOptions) (*Minio, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("cache: minio bucket is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: minio client: %w", err)
	}
	return NewMinioWithClient(client, opts.Bucket, opts.Prefix), nil
}

// NewMinioWithClient wraps an existing client.
func NewMinioWithClient(client *minio.Client, bucket, prefix string) *Minio {
	return &Minio{client: client, bucket: bucket, prefix: prefix}
}

// objectNames returns the vectors and names object keys of dataset.
func (m *Minio) objectNames(dataset string) (string, string, error) {
	key, err := Key(dataset)
	if err != nil {
		return "", "", err
	}
	return path.Join(m.prefix, "features_"+key+".zst"), path.Join(m.prefix, "imagenames_"+key+".msgpack"), nil
}

func (m *Minio) Save(ctx context.Context, dataset string, vectors []vector.Vector) error {
	vecKey, namesKey, err := m.objectNames(dataset)
	if err != nil {
		return err
	}
	a, err := encode(vectors)
	if err != nil {
		return err
	}
	if err := m.put(ctx, vecKey, a.vectors); err != nil {
		return err
	}
	return m.put(ctx, namesKey, a.names)
}

func (m *Minio) put(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", key, err)
	}
	return nil
}

func (m *Minio) Load(ctx context.Context, dataset string) ([]vector.Vector, error) {
	vecKey, namesKey, err := m.objectNames(dataset)
	if err != nil {
		return nil, err
	}
	var a artifacts
	if a.vectors, err = m.get(ctx, vecKey); err != nil {
		return nil, err
	}
	if a.names, err = m.get(ctx, namesKey); err != nil {
		return nil, err
	}
	return decode(a)
}

func (m *Minio) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinio(key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyMinio(key, err)
	}
	return data, nil
}

func classifyMinio(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return ErrMiss
	}
	return fmt.Errorf("cache: get %s: %w", key, err)
}

var _ Backend = (*Minio)(nil)
