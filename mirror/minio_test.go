package mirror

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/runetek/errs"
)

// TestMinioStore_Integration requires a running MinIO instance on localhost:9000.
func TestMinioStore_Integration(t *testing.T) {
	const bucket = "test-runetek"

	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewMinioStore(client, bucket, "mirror-test")
	m, err := New(store)
	require.NoError(t, err)

	src := sampleFile()
	require.NoError(t, m.Save(ctx, src))

	got, err := m.Load(ctx, src.Info())
	require.NoError(t, err)
	require.Equal(t, src.Data, got.Data)

	missing := src.Info().Clone()
	missing.FileID = 999999
	_, err = m.Load(ctx, missing)
	require.ErrorIs(t, err, errs.ErrMirrorMiss)

	_ = client.RemoveObject(ctx, bucket, store.key(Key(src.Info())), minio.RemoveObjectOptions{})
}
