package service_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/service"
	"eventhub/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
}

func newBannerService(t *testing.T) *service.BannerService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir(), "/api/files")
	require.NoError(t, err)
	return service.NewBannerService(store, 1<<20, time.Hour)
}

func TestBannerService_Upload(t *testing.T) {
	ctx := context.Background()
	banners := newBannerService(t)

	data := pngBytes()
	upload, err := banners.Upload(ctx, "poster.gif", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.Key, "banners/"))
	assert.True(t, strings.HasSuffix(upload.Key, "_poster.png"), "extension follows the sniffed type")
	assert.Equal(t, "/api/files/"+upload.Key, upload.URL)

	rc, err := banners.Open(ctx, upload.Key)
	require.NoError(t, err)
	defer rc.Close()
	stored, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestBannerService_UploadRejects(t *testing.T) {
	ctx := context.Background()
	banners := newBannerService(t)

	text := []byte("just some text, not an image")
	_, err := banners.Upload(ctx, "notes.png", int64(len(text)), bytes.NewReader(text))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = banners.Upload(ctx, "empty.png", 0, bytes.NewReader(nil))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = banners.Upload(ctx, "huge.png", 2<<20, bytes.NewReader(pngBytes()))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestBannerService_OpenOutsidePrefix(t *testing.T) {
	banners := newBannerService(t)

	_, err := banners.Open(context.Background(), "private/2025/01/secret.txt")
	assert.ErrorIs(t, err, storage.ErrFileNotFound)

	_, err = banners.Open(context.Background(), "banners/2025/01/missing.png")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
