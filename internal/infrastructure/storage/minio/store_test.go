package minio

import (
	"context"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
)

type fakeObjectAPI struct {
	bucketExists bool
	madeBuckets  []string

	putBucket      string
	putKey         string
	putContentType string
	putSize        int64

	removedKeys []string

	presignExpiry time.Duration
}

func (f *fakeObjectAPI) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeObjectAPI) MakeBucket(_ context.Context, name string, _ minio.MakeBucketOptions) error {
	f.madeBuckets = append(f.madeBuckets, name)
	f.bucketExists = true
	return nil
}

func (f *fakeObjectAPI) PutObject(_ context.Context, bucket, key string, _ io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.putBucket = bucket
	f.putKey = key
	f.putContentType = opts.ContentType
	f.putSize = size
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func (f *fakeObjectAPI) GetObject(_ context.Context, _, _ string, _ minio.GetObjectOptions) (*minio.Object, error) {
	return nil, nil
}

func (f *fakeObjectAPI) StatObject(_ context.Context, _, _ string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return minio.ObjectInfo{}, nil
}

func (f *fakeObjectAPI) RemoveObject(_ context.Context, _, key string, _ minio.RemoveObjectOptions) error {
	f.removedKeys = append(f.removedKeys, key)
	return nil
}

func (f *fakeObjectAPI) PresignedGetObject(_ context.Context, bucket, key string, expiry time.Duration, _ url.Values) (*url.URL, error) {
	f.presignExpiry = expiry
	return url.Parse("https://storage.local/" + bucket + "/" + key)
}

func newTestClient(api ObjectAPI) *Client {
	return &Client{
		api: api,
		cfg: config.MinIOConfig{
			Bucket:        "clauselens-documents",
			PresignExpiry: time.Hour,
		},
		logger: logging.NewNopLogger(),
	}
}

func TestEnsureBucket_CreatesMissing(t *testing.T) {
	api := &fakeObjectAPI{bucketExists: false}
	c := newTestClient(api)

	require.NoError(t, c.ensureBucket(context.Background()))
	assert.Equal(t, []string{"clauselens-documents"}, api.madeBuckets)

	// Second call is a no-op.
	require.NoError(t, c.ensureBucket(context.Background()))
	assert.Len(t, api.madeBuckets, 1)
}

func TestPut_DefaultContentType(t *testing.T) {
	api := &fakeObjectAPI{bucketExists: true}
	store := NewDocumentStore(newTestClient(api), logging.NewNopLogger())

	require.NoError(t, store.Put(context.Background(), "documents/abc", []byte("hello"), ""))
	assert.Equal(t, "clauselens-documents", api.putBucket)
	assert.Equal(t, "documents/abc", api.putKey)
	assert.Equal(t, "application/octet-stream", api.putContentType)
	assert.Equal(t, int64(5), api.putSize)

	require.NoError(t, store.Put(context.Background(), "documents/abc", []byte("hello"), "text/plain"))
	assert.Equal(t, "text/plain", api.putContentType)
}

func TestDelete(t *testing.T) {
	api := &fakeObjectAPI{bucketExists: true}
	store := NewDocumentStore(newTestClient(api), logging.NewNopLogger())

	require.NoError(t, store.Delete(context.Background(), "documents/abc"))
	assert.Equal(t, []string{"documents/abc"}, api.removedKeys)
}

func TestPresignedGetURL(t *testing.T) {
	api := &fakeObjectAPI{bucketExists: true}
	store := NewDocumentStore(newTestClient(api), logging.NewNopLogger())

	u, err := store.PresignedGetURL(context.Background(), "documents/abc", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.local/clauselens-documents/documents/abc", u)
	assert.Equal(t, time.Hour, api.presignExpiry)

	_, err = store.PresignedGetURL(context.Background(), "documents/abc", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, api.presignExpiry)
}
