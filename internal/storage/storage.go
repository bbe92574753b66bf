package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/model"

	"github.com/google/uuid"
)

var ErrFileNotFound = model.NewNotFoundError("File not found")

// Storage defines the interface for file storage operations
type Storage interface {
	// Store saves a file under prefix and returns the storage key
	Store(ctx context.Context, prefix, filename string, content io.Reader, contentType string) (string, error)

	// Retrieve gets a file by storage key
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file by storage key
	Delete(ctx context.Context, key string) error

	// GetURL returns a URL the file can be fetched from
	GetURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}

type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// New builds the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch StorageType(cfg.Type) {
	case StorageTypeLocal, "":
		basePath := cfg.LocalPath
		if basePath == "" {
			basePath = "./uploads"
		}
		return NewLocalStorage(basePath, "/api/files")

	case StorageTypeS3:
		return NewS3Storage(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// newKey generates prefix/year/month/uuid_filename
func newKey(prefix, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%s_%s",
		strings.Trim(prefix, "/"),
		now.Year(),
		now.Month(),
		uuid.NewString(),
		sanitizeFilename(filename),
	)
}

func sanitizeFilename(filename string) string {
	// Remove path separators and other dangerous characters
	r := strings.NewReplacer(
		"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	filename = r.Replace(filename)
	if filename == "" {
		return "file"
	}
	return filename
}
