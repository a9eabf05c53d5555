// internal/core/services/catalog_test.go
package services_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/services"
	"github.com/ammerola/pharmabook-be/test/helpers"
	"github.com/ammerola/pharmabook-be/test/mocks"
)

func TestCatalogService_AddStock(t *testing.T) {
	owner := uuid.New()
	existing := helpers.CreateTestMedicine(owner)

	tests := []struct {
		name          string
		intake        domain.StockIntake
		setupMocks    func(*mocks.MockCatalogRepository)
		expectedError error
		errorContains string
		wantBatches   int
	}{
		{
			name:   "creates_medicine_on_first_intake",
			intake: domain.StockIntake{Name: " Ibuprofen ", Company: "Acme", Batch: helpers.CreateTestBatch()},
			setupMocks: func(m *mocks.MockCatalogRepository) {
				m.EXPECT().
					AddBatch(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, med *domain.Medicine, b domain.Batch) (bool, error) {
						assert.Equal(t, owner, med.OwnerID)
						assert.Equal(t, "Ibuprofen", med.Name)
						assert.Equal(t, "B-001", b.BatchNumber)
						med.ID = uuid.New()
						med.Batches = []domain.Batch{b}
						return true, nil
					})
			},
			wantBatches: 1,
		},
		{
			name: "appends_batch_to_existing_medicine",
			intake: domain.StockIntake{Name: existing.Name, Company: existing.Company,
				Batch: helpers.CreateTestBatch(func(b *domain.Batch) { b.BatchNumber = "B-002" })},
			setupMocks: func(m *mocks.MockCatalogRepository) {
				m.EXPECT().
					AddBatch(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, med *domain.Medicine, b domain.Batch) (bool, error) {
						med.ID = existing.ID
						med.Batches = append(slices.Clone(existing.Batches), b)
						return false, nil
					})
			},
			wantBatches: 2,
		},
		{
			name:   "duplicate_batch_number_rejected",
			intake: domain.StockIntake{Name: existing.Name, Company: existing.Company, Batch: helpers.CreateTestBatch()},
			setupMocks: func(m *mocks.MockCatalogRepository) {
				m.EXPECT().
					AddBatch(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(false, domain.InvalidRequest("batch B-001 already exists for %s", existing.Name))
			},
			expectedError: domain.ErrInvalidRequest,
			errorContains: "already exists",
		},
		{
			name: "strip_batch_without_strip_size_rejected",
			intake: domain.StockIntake{Name: "X", Company: "Y", Batch: helpers.CreateTestBatch(func(b *domain.Batch) {
				b.TabletsPerStrip = 0
			})},
			setupMocks:    func(m *mocks.MockCatalogRepository) {},
			expectedError: domain.ErrInvalidRequest,
			errorContains: "tabletsPerStrip",
		},
		{
			name: "negative_price_rejected",
			intake: domain.StockIntake{Name: "X", Company: "Y", Batch: helpers.CreateTestBatch(func(b *domain.Batch) {
				b.Price = decimal.NewFromInt(-1)
			})},
			setupMocks:    func(m *mocks.MockCatalogRepository) {},
			expectedError: domain.ErrInvalidRequest,
			errorContains: "price cannot be negative",
		},
		{
			name:          "missing_company_rejected",
			intake:        domain.StockIntake{Name: "X", Batch: helpers.CreateTestBatch()},
			setupMocks:    func(m *mocks.MockCatalogRepository) {},
			expectedError: domain.ErrInvalidRequest,
			errorContains: "company is required",
		},
		{
			name:   "repository_error_propagates",
			intake: domain.StockIntake{Name: "X", Company: "Y", Batch: helpers.CreateTestBatch()},
			setupMocks: func(m *mocks.MockCatalogRepository) {
				m.EXPECT().
					AddBatch(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(false, domain.StoreUnavailable(errors.New("connection refused")))
			},
			expectedError: domain.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockCatalogRepository(ctrl)
			tt.setupMocks(repo)

			svc := services.NewCatalogService(repo, nil, helpers.TestLogger())
			med, err := svc.AddStock(context.Background(), owner, tt.intake)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Len(t, med.Batches, tt.wantBatches)
		})
	}
}

func TestCatalogService_AddStockThenBill(t *testing.T) {
	store := helpers.NewMemStore()
	owner := uuid.New()
	catalog := services.NewCatalogService(store, nil, helpers.TestLogger())

	med, err := catalog.AddStock(context.Background(), owner, domain.StockIntake{
		Name: "Cetirizine", Company: "Acme", Batch: helpers.CreateTestBatch(),
	})
	require.NoError(t, err)

	again, err := catalog.AddStock(context.Background(), owner, domain.StockIntake{
		Name: "Cetirizine", Company: "Acme",
		Batch: helpers.CreateTestBatch(func(b *domain.Batch) { b.BatchNumber = "B-002"; b.Quantity = 30 }),
	})
	require.NoError(t, err)
	assert.Equal(t, med.ID, again.ID)

	ledger := services.NewLedger(store, helpers.TestLogger())
	_, err = ledger.ProcessBill(context.Background(), owner,
		[]domain.BillItemRequest{helpers.Line(med.ID, "B-002", 30)}, nil)
	require.NoError(t, err)

	got, err := catalog.GetMedicine(context.Background(), owner, med.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.FindBatch("B-001").Quantity)
	assert.Equal(t, 0, got.FindBatch("B-002").Quantity)

	_, err = catalog.GetMedicine(context.Background(), uuid.New(), med.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogService_ConcurrentIntake(t *testing.T) {
	const intakes = 8

	t.Run("same_batch_number_stores_exactly_one", func(t *testing.T) {
		store := helpers.NewMemStore()
		owner := uuid.New()
		catalog := services.NewCatalogService(store, nil, helpers.TestLogger())

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []*domain.Medicine
			errs    []error
		)
		for i := range intakes {
			wg.Add(1)
			go func(qty int) {
				defer wg.Done()
				med, err := catalog.AddStock(context.Background(), owner, domain.StockIntake{
					Name: "Amoxicillin", Company: "Acme",
					Batch: helpers.CreateTestBatch(func(b *domain.Batch) { b.Quantity = qty }),
				})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				winners = append(winners, med)
			}(10 * (i + 1))
		}
		wg.Wait()

		require.Len(t, winners, 1)
		require.Len(t, errs, intakes-1)
		for _, err := range errs {
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Contains(t, err.Error(), "already exists")
		}

		// The caller that got success sees what was stored.
		won := winners[0]
		assert.Equal(t, won.FindBatch("B-001").Quantity, store.Quantity(won.ID, "B-001"))

		stored, err := store.FindMedicineByName(context.Background(), owner, "Amoxicillin", "Acme")
		require.NoError(t, err)
		assert.Equal(t, won.ID, stored.ID)
		assert.Len(t, stored.Batches, 1)
	})

	t.Run("distinct_batches_share_one_medicine", func(t *testing.T) {
		store := helpers.NewMemStore()
		owner := uuid.New()
		catalog := services.NewCatalogService(store, nil, helpers.TestLogger())

		ids := make([]uuid.UUID, intakes)
		var wg sync.WaitGroup
		for i := range intakes {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				med, err := catalog.AddStock(context.Background(), owner, domain.StockIntake{
					Name: "Amoxicillin", Company: "Acme",
					Batch: helpers.CreateTestBatch(func(b *domain.Batch) { b.BatchNumber = fmt.Sprintf("B-%03d", i) }),
				})
				if assert.NoError(t, err) {
					ids[i] = med.ID
				}
			}(i)
		}
		wg.Wait()

		for _, id := range ids[1:] {
			assert.Equal(t, ids[0], id)
		}
		stored, err := store.FindMedicine(context.Background(), owner, ids[0])
		require.NoError(t, err)
		assert.Len(t, stored.Batches, intakes)
	})
}
