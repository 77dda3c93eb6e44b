package mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/arloliu/runetek/errs"
)

// MinioStore stores frames as objects in a MinIO or S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ Store = (*MinioStore)(nil)

// NewMinioStore creates a store writing below prefix in bucket.
func NewMinioStore(client *minio.Client, bucket, prefix string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *MinioStore) key(name string) string {
	return path.Join(s.prefix, name)
}

// Get downloads the object stored under key.
func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(key, err)
	}

	return data, nil
}

// Put uploads frame under key.
func (s *MinioStore) Put(ctx context.Context, key string, frame []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(key), bytes.NewReader(frame), int64(len(frame)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})

	return err
}

func (s *MinioStore) translate(key string, err error) error {
	code := minio.ToErrorResponse(err).Code
	if code == "NoSuchKey" || code == "NotFound" {
		return fmt.Errorf("%w: %s", errs.ErrMirrorMiss, key)
	}

	return err
}
