package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/inventrack/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 keeps objects in a map and records bucket calls
type fakeS3 struct {
	bucketExists bool
	headErr      error
	created      []string
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if !f.bucketExists {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, aws.ToString(in.Bucket))
	f.bucketExists = true
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.contentTypes[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3ObjectStorage(ctx, nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3ObjectStorage(ctx, &config.StorageConfig{})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3ObjectStorage(ctx, &config.StorageConfig{Bucket: "archive", AccessKeyID: "key"})
	assert.ErrorContains(t, err, "must be set together")

	store, err := NewS3ObjectStorage(ctx, &config.StorageConfig{
		Bucket:          "archive",
		Endpoint:        "localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "archive", store.Bucket())
}

func TestS3ObjectStorage_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a missing bucket", func(t *testing.T) {
		api := newFakeS3()
		require.NoError(t, newS3ObjectStorage(api, "archive").EnsureBucket(ctx))
		assert.Equal(t, []string{"archive"}, api.created)
	})

	t.Run("leaves an existing bucket", func(t *testing.T) {
		api := newFakeS3()
		api.bucketExists = true
		require.NoError(t, newS3ObjectStorage(api, "archive").EnsureBucket(ctx))
		assert.Empty(t, api.created)
	})

	t.Run("other errors are returned", func(t *testing.T) {
		api := newFakeS3()
		api.headErr = errors.New("forbidden")
		assert.ErrorContains(t, newS3ObjectStorage(api, "archive").EnsureBucket(ctx), "forbidden")
	})
}

func TestS3ObjectStorage_PutGet(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	store := newS3ObjectStorage(api, "archive")

	require.NoError(t, store.Put(ctx, "purges/a.json", []byte(`{"count":1}`), "application/json"))
	assert.Equal(t, "application/json", api.contentTypes["purges/a.json"])

	data, err := store.Get(ctx, "purges/a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":1}`, string(data))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.Error(t, store.Put(ctx, "", nil, "application/json"))
}

func TestMemoryObjectStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryObjectStore()

	data := []byte("payload")
	require.NoError(t, store.Put(ctx, "b", data, "text/plain"))
	require.NoError(t, store.Put(ctx, "a", data, "text/plain"))
	data[0] = 'X'

	got, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got), "store keeps its own copy")
	assert.Equal(t, []string{"a", "b"}, store.Keys())

	_, err = store.Get(ctx, "c")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Error(t, store.Put(ctx, "", data, ""))
}
