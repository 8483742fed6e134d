package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyhunko/academy-backend/internal/apperror"
	"github.com/iyhunko/academy-backend/internal/storage"
)

var fixedNow = time.UnixMilli(1700000000000)

func pngUpload(name string, size int) storage.Upload {
	body := bytes.Repeat([]byte{0x89}, size)
	return storage.Upload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(size),
		Body:        bytes.NewReader(body),
		BaseURL:     "http://localhost:8080",
	}
}

func TestImageStore_SaveRandomName(t *testing.T) {
	// given
	dir := t.TempDir()
	backend, err := storage.NewDiskBackend(dir)
	require.NoError(t, err)
	store := storage.NewImageStore(backend, storage.ProductPolicy(5<<20))
	store.SetClock(func() time.Time { return fixedNow })

	// when
	img, err := store.Save(context.Background(), pngUpload("Photo.PNG", 128))

	// then
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^1700000000000-\d+\.png$`), img.Filename)
	assert.Equal(t, "http://localhost:8080/uploads/"+img.Filename, img.URL)

	data, err := os.ReadFile(filepath.Join(dir, img.Filename))
	require.NoError(t, err)
	assert.Len(t, data, 128)
}

func TestImageStore_SaveOriginalName(t *testing.T) {
	// given
	backend, err := storage.NewDiskBackend(t.TempDir())
	require.NoError(t, err)
	store := storage.NewImageStore(backend, storage.CoursePolicy(0))
	store.SetClock(func() time.Time { return fixedNow })

	// when
	img, err := store.Save(context.Background(), pngUpload("my course (1).png", 16))

	// then
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^1700000000000-\d+-my-course-1-\.png$`), img.Filename)
}

func TestImageStore_SaveOriginalNameTwiceInOneMillisecond(t *testing.T) {
	// given
	dir := t.TempDir()
	backend, err := storage.NewDiskBackend(dir)
	require.NoError(t, err)
	store := storage.NewImageStore(backend, storage.CoursePolicy(0))
	store.SetClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	// when
	first, err := store.Save(ctx, pngUpload("cover.png", 8))
	require.NoError(t, err)
	second, err := store.Save(ctx, pngUpload("cover.png", 16))
	require.NoError(t, err)

	// then
	assert.NotEqual(t, first.Filename, second.Filename)
	data, err := os.ReadFile(filepath.Join(dir, first.Filename))
	require.NoError(t, err)
	assert.Len(t, data, 8)
	data, err = os.ReadFile(filepath.Join(dir, second.Filename))
	require.NoError(t, err)
	assert.Len(t, data, 16)
}

func TestImageStore_SaveRejects(t *testing.T) {
	tests := []struct {
		name   string
		upload storage.Upload
		policy storage.Policy
		err    error
	}{
		{
			name:   "gif extension",
			upload: storage.Upload{Filename: "a.gif", ContentType: "image/png", Body: strings.NewReader("x"), Size: 1},
			policy: storage.ProductPolicy(5 << 20),
			err:    apperror.ErrUnsupportedMediaType,
		},
		{
			name:   "wrong content type",
			upload: storage.Upload{Filename: "a.png", ContentType: "application/pdf", Body: strings.NewReader("x"), Size: 1},
			policy: storage.ProductPolicy(5 << 20),
			err:    apperror.ErrUnsupportedMediaType,
		},
		{
			name:   "too large",
			upload: pngUpload("a.png", 11),
			policy: storage.ProductPolicy(10),
			err:    apperror.ErrPayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			backend, err := storage.NewDiskBackend(dir)
			require.NoError(t, err)
			store := storage.NewImageStore(backend, tt.policy)

			img, err := store.Save(context.Background(), tt.upload)

			assert.Nil(t, img)
			require.ErrorIs(t, err, tt.err)
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestImageStore_UnlimitedSize(t *testing.T) {
	backend, err := storage.NewDiskBackend(t.TempDir())
	require.NoError(t, err)
	store := storage.NewImageStore(backend, storage.CoursePolicy(0))

	img, err := store.Save(context.Background(), pngUpload("big.png", 6<<20))
	require.NoError(t, err)
	assert.NotEmpty(t, img.Filename)
}

func TestImageStore_Delete(t *testing.T) {
	// given
	dir := t.TempDir()
	backend, err := storage.NewDiskBackend(dir)
	require.NoError(t, err)
	store := storage.NewImageStore(backend, storage.ProductPolicy(0))
	img, err := store.Save(context.Background(), pngUpload("a.png", 4))
	require.NoError(t, err)

	// when
	err = store.Delete(context.Background(), img.Filename)

	// then
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, img.Filename))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	// deleting again and deleting nothing both succeed
	require.NoError(t, store.Delete(context.Background(), img.Filename))
	require.NoError(t, store.Delete(context.Background(), ""))
}

func TestDiskBackend_PathTraversal(t *testing.T) {
	dir := t.TempDir()
	backend, err := storage.NewDiskBackend(dir)
	require.NoError(t, err)

	err = backend.Put(context.Background(), "../escape.png", "image/png", 1, strings.NewReader("x"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	require.NoError(t, err)
}

func TestDiskBackend_PutNeverReplaces(t *testing.T) {
	// given
	dir := t.TempDir()
	backend, err := storage.NewDiskBackend(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "cover.png", "image/png", 5, strings.NewReader("first")))

	// when
	err = backend.Put(ctx, "cover.png", "image/png", 6, strings.NewReader("second"))

	// then
	require.ErrorIs(t, err, fs.ErrExist)
	data, err := os.ReadFile(filepath.Join(dir, "cover.png"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

type fakeObjectAPI struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, bucket, name string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+name] = data
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: int64(len(data))}, nil
}

func (f *fakeObjectAPI) RemoveObject(_ context.Context, bucket, name string, _ minio.RemoveObjectOptions) error {
	delete(f.objects, bucket+"/"+name)
	return nil
}

func TestMinioBackend(t *testing.T) {
	// given
	api := &fakeObjectAPI{objects: map[string][]byte{}}
	backend := storage.NewMinioBackend(api, "images", "http://cdn.local:9000/")
	store := storage.NewImageStore(backend, storage.ProductPolicy(5<<20))

	// when
	img, err := store.Save(context.Background(), pngUpload("a.png", 8))

	// then
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.local:9000/images/"+img.Filename, img.URL)
	assert.Len(t, api.objects["images/"+img.Filename], 8)

	require.NoError(t, store.Delete(context.Background(), img.Filename))
	assert.Empty(t, api.objects)
}

func TestMinioBackend_PutError(t *testing.T) {
	api := &fakeObjectAPI{objects: map[string][]byte{}, putErr: errors.New("bucket offline")}
	store := storage.NewImageStore(storage.NewMinioBackend(api, "images", "http://cdn"), storage.ProductPolicy(0))

	img, err := store.Save(context.Background(), pngUpload("a.png", 8))

	assert.Nil(t, img)
	require.ErrorContains(t, err, "bucket offline")
}
