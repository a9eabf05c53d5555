// internal/core/ports/cache.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

// BillCache keeps committed bills for fast reads. Bills are immutable, so
// entries only ever expire. GetBill returns an error on a miss.
type BillCache interface {
	GetBill(ctx context.Context, ownerID, billID uuid.UUID) (*domain.Bill, error)
	PutBill(ctx context.Context, bill *domain.Bill) error
}
