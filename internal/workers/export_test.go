// internal/workers/export_test.go
package workers

import (
	"log/slog"
	"time"
)

func NewTaskClientWith(client enqueuer, retryMax int, logger *slog.Logger) *TaskClient {
	return newTaskClient(client, retryMax, logger)
}

func (p *CleanupProcessor) SetNow(now func() time.Time) { p.now = now }
