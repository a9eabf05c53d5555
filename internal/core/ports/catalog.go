// internal/core/ports/catalog.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

// CatalogRepository is the durable record of medicines and their batches.
// Lookups are owner-scoped; a record owned by someone else is ErrNotFound.
type CatalogRepository interface {
	FindMedicine(ctx context.Context, ownerID, medicineID uuid.UUID) (*domain.Medicine, error)
	FindMedicineByName(ctx context.Context, ownerID uuid.UUID, name, company string) (*domain.Medicine, error)
	// SaveMedicine creates the medicine if new and stores batches it does not
	// hold yet. Quantities of already stored batches are never overwritten.
	SaveMedicine(ctx context.Context, medicine *domain.Medicine) error
	// AddBatch stores one batch under the owner's (name, company) medicine,
	// creating the medicine when absent. A batch number the medicine already
	// holds is ErrInvalidRequest. On success medicine carries the stored id
	// and batches, and created reports whether this call made the medicine.
	AddBatch(ctx context.Context, medicine *domain.Medicine, batch domain.Batch) (created bool, err error)
}
