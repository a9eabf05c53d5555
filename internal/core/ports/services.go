// internal/core/ports/services.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

// BillingService is the entry point the transport layer calls for bills.
type BillingService interface {
	CreateBill(ctx context.Context, ownerID uuid.UUID, req domain.BillRequest) (*domain.Bill, error)
	GetBill(ctx context.Context, ownerID, billID uuid.UUID) (*domain.Bill, error)
	ListBills(ctx context.Context, ownerID uuid.UUID, filter domain.BillFilter) (*BillPage, error)
}

// CatalogService covers stock intake and single-medicine reads.
type CatalogService interface {
	AddStock(ctx context.Context, ownerID uuid.UUID, intake domain.StockIntake) (*domain.Medicine, error)
	GetMedicine(ctx context.Context, ownerID, medicineID uuid.UUID) (*domain.Medicine, error)
}

type BillPage struct {
	Bills      []*domain.Bill `json:"bills"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalCount int64          `json:"totalCount"`
	TotalPages int            `json:"totalPages"`
}
