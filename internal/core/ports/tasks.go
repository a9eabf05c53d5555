// internal/core/ports/tasks.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

// TaskEnqueuer schedules background work after the request has committed.
type TaskEnqueuer interface {
	EnqueueBillReceipt(ctx context.Context, bill *domain.Bill) error
	EnqueueStockImport(ctx context.Context, ownerID uuid.UUID, fileKey string) (string, error)
}
