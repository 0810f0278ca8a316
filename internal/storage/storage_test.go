package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"alcance-reducido-backend/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestS3StorePutAndURL(t *testing.T) {
	client := &fakeS3{}
	store := storage.NewS3StoreWithClient(client, "alcancereducido-images", "us-east-1")

	require.NoError(t, store.Put(context.Background(), "logos/x.png", strings.NewReader("png"), 3, "image/png"))

	assert.Equal(t, "alcancereducido-images", aws.ToString(client.input.Bucket))
	assert.Equal(t, "logos/x.png", aws.ToString(client.input.Key))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, "png", client.body)
	assert.Equal(t, "https://alcancereducido-images.s3.us-east-1.amazonaws.com/logos/x.png", store.URL("logos/x.png"))
}

func TestLocalStoreWritesUnderRoot(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocalStore(root, "http://localhost:3000/")
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "fotos/a.jpg", strings.NewReader("jpg"), 3, "image/jpeg"))

	data, err := os.ReadFile(filepath.Join(root, "fotos", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpg", string(data))
	assert.Equal(t, "http://localhost:3000/uploads/fotos/a.jpg", store.URL("fotos/a.jpg"))

	err = store.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, "text/plain")
	assert.Error(t, err)
}
