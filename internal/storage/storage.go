package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	appconfig "alcance-reducido-backend/config"
)

// BlobStore guarda un objeto completo en una sola escritura y devuelve su URL pública.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	URL(key string) string
}

// New elige la implementación según STORAGE_DRIVER.
func New(ctx context.Context, cfg appconfig.Storage, baseURL string) (BlobStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "s3", "":
		return NewS3Store(ctx, cfg)
	case "local":
		return NewLocalStore(cfg.UploadDir, baseURL)
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER desconocido: %q", cfg.Driver)
	}
}
