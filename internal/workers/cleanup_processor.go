// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// TempFilePrefix marks temporary files this service creates and may delete.
const TempFilePrefix = "pharmabook-"

// CleanupProcessor removes stale temporary files.
type CleanupProcessor struct {
	tempDir string
	maxAge  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

func NewCleanupProcessor(tempDir string, maxAge time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		tempDir: tempDir,
		maxAge:  maxAge,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupTempFiles handles TypeCleanupTempFiles. Only files carrying
// TempFilePrefix are touched.
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, _ *asynq.Task) error {
	cutoff := p.now().Add(-p.maxAge)
	deleted := 0

	err := filepath.WalkDir(p.tempDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == p.tempDir {
				return err
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != p.tempDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			p.logger.WarnContext(ctx, "failed to delete temp file",
				slog.String("file", path),
				slog.String("error", err.Error()))
			return nil
		}
		deleted++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk temp directory: %w", err)
	}

	p.logger.InfoContext(ctx, "temp files cleaned up", slog.Int("files_deleted", deleted))
	return nil
}
