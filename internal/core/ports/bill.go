// internal/core/ports/bill.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

// BillRepository reads and writes immutable bills.
type BillRepository interface {
	SaveBill(ctx context.Context, bill *domain.Bill) error
	FindBill(ctx context.Context, ownerID, billID uuid.UUID) (*domain.Bill, error)
	ListBills(ctx context.Context, ownerID uuid.UUID, filter domain.BillFilter) ([]*domain.Bill, int64, error)
}
