// internal/core/ports/storage.go
package ports

import (
	"context"
	"io"
)

// FileStorage holds receipts and uploaded import sheets.
type FileStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
