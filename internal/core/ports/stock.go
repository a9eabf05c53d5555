// internal/core/ports/stock.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

// StockTx is the catalog and bill store as seen from inside one transaction.
// Nothing written through it is visible to others before commit.
type StockTx interface {
	// LockBatch locks the batch row until the transaction ends and returns it.
	// It returns nil, nil when the batch or its medicine is absent for owner.
	LockBatch(ctx context.Context, ownerID, medicineID uuid.UUID, batchNumber string) (*domain.Batch, error)
	// LookupMedicine returns the medicine header (no batches), or nil, nil.
	LookupMedicine(ctx context.Context, ownerID, medicineID uuid.UUID) (*domain.Medicine, error)
	// DeductStock decrements quantity only when at least tablets remain and
	// reports whether a row was changed.
	DeductStock(ctx context.Context, medicineID uuid.UUID, batchNumber string, tablets int) (bool, error)
	InsertBill(ctx context.Context, bill *domain.Bill) error
}

// TxManager runs fn in one all-or-nothing transaction: commit when fn returns
// nil, rollback on error, panic or cancellation.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx StockTx) error) error
}
