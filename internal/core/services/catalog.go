// internal/core/services/catalog.go
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

// CatalogService handles stock intake.
type CatalogService struct {
	repo    ports.CatalogRepository
	metrics ports.BillingMetrics
	logger  *slog.Logger
}

var _ ports.CatalogService = (*CatalogService)(nil)

func NewCatalogService(repo ports.CatalogRepository, metrics ports.BillingMetrics, logger *slog.Logger) *CatalogService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &CatalogService{
		repo:    repo,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "catalog")),
	}
}

// AddStock appends the batch to the owner's (name, company) medicine,
// creating the medicine on first intake.
func (s *CatalogService) AddStock(ctx context.Context, ownerID uuid.UUID, intake domain.StockIntake) (*domain.Medicine, error) {
	if ownerID == uuid.Nil {
		return nil, domain.InvalidRequest("owner is required")
	}
	intake.Normalize()
	if err := intake.Validate(); err != nil {
		return nil, err
	}

	// AddBatch resolves the medicine and checks the batch number in one transaction.
	m := &domain.Medicine{OwnerID: ownerID, Name: intake.Name, Company: intake.Company}
	created, err := s.repo.AddBatch(ctx, m, intake.Batch)
	if err != nil {
		return nil, err
	}

	s.metrics.StockAdded(created)
	s.logger.InfoContext(ctx, "stock added",
		slog.String("medicine_id", m.ID.String()),
		slog.String("batch_number", intake.Batch.BatchNumber),
		slog.Int("quantity", intake.Batch.Quantity),
		slog.Bool("new_medicine", created))

	return m, nil
}

func (s *CatalogService) GetMedicine(ctx context.Context, ownerID, medicineID uuid.UUID) (*domain.Medicine, error) {
	return s.repo.FindMedicine(ctx, ownerID, medicineID)
}
