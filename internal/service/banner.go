package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/storage"
)

const bannerPrefix = "banners"

var bannerTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type BannerUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// BannerService stores event banner images.
type BannerService struct {
	store   storage.Storage
	maxSize int64
	urlTTL  time.Duration
}

func NewBannerService(store storage.Storage, maxSize int64, urlTTL time.Duration) *BannerService {
	return &BannerService{store: store, maxSize: maxSize, urlTTL: urlTTL}
}

// Upload sniffs the content type from the first bytes of content, rejects
// anything but jpeg, png and webp, and stores the file.
func (s *BannerService) Upload(ctx context.Context, filename string, size int64, content io.Reader) (BannerUpload, error) {
	if size <= 0 {
		return BannerUpload{}, model.NewValidationError("file is empty")
	}
	if size > s.maxSize {
		return BannerUpload{}, model.NewValidationError("file exceeds the %d MB limit", s.maxSize>>20)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(content, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return BannerUpload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := bannerTypes[contentType]
	if !ok {
		return BannerUpload{}, model.NewValidationError("banner must be a jpeg, png or webp image")
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)) + ext
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), content), s.maxSize)

	key, err := s.store.Store(ctx, bannerPrefix, name, body, contentType)
	if err != nil {
		return BannerUpload{}, err
	}

	url, err := s.store.GetURL(ctx, key, s.urlTTL)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "Failed to remove orphaned banner", "key", key, "error", delErr)
		}
		return BannerUpload{}, err
	}

	slog.InfoContext(ctx, "Banner uploaded", "key", key, "content_type", contentType)
	return BannerUpload{Key: key, URL: url}, nil
}

// Open returns the stored banner for key.
func (s *BannerService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, bannerPrefix+"/") {
		return nil, storage.ErrFileNotFound
	}
	return s.store.Retrieve(ctx, key)
}
