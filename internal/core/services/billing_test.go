// internal/core/services/billing_test.go
package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
	"github.com/ammerola/pharmabook-be/internal/core/services"
	"github.com/ammerola/pharmabook-be/test/helpers"
	"github.com/ammerola/pharmabook-be/test/mocks"
)

var testBillingOptions = services.BillingOptions{
	ConflictRetries: 2,
	RetryBackoff:    time.Millisecond,
	MaxItems:        10,
}

type billingFixture struct {
	service *services.BillingService
	store   *helpers.MemStore
	cache   *mocks.MockBillCache
	tasks   *mocks.MockTaskEnqueuer
	owner   uuid.UUID
	med     *domain.Medicine
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	store := helpers.NewMemStore()
	owner := uuid.New()
	med := helpers.CreateTestMedicine(owner, func(m *domain.Medicine) {
		m.Batches = append(m.Batches, helpers.CreateTestBatch(func(b *domain.Batch) {
			b.BatchNumber = "L-100"
			b.IsStripBased = false
			b.TabletsPerStrip = 0
			b.Price = decimal.NewFromInt(5)
			b.Quantity = 20
		}))
	})
	store.Seed(med)

	cache := mocks.NewMockBillCache(ctrl)
	tasks := mocks.NewMockTaskEnqueuer(ctrl)

	svc := services.NewBillingService(services.NewLedger(store, helpers.TestLogger()),
		store, cache, tasks, nil, testBillingOptions, helpers.TestLogger())

	return &billingFixture{service: svc, store: store, cache: cache, tasks: tasks, owner: owner, med: med}
}

func (f *billingFixture) expectAfterCommit(times int) {
	f.cache.EXPECT().PutBill(gomock.Any(), gomock.Any()).Return(nil).Times(times)
	f.tasks.EXPECT().EnqueueBillReceipt(gomock.Any(), gomock.Any()).Return(nil).Times(times)
}

func TestBillingService_CreateBill_Success(t *testing.T) {
	f := newBillingFixture(t)
	f.expectAfterCommit(1)

	bill, err := f.service.CreateBill(context.Background(), f.owner, helpers.CreateTestBillRequest("  Jane Doe ",
		helpers.Line(f.med.ID, "B-001", 10),
	))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, bill.ID)
	assert.Equal(t, f.owner, bill.OwnerID)
	assert.Equal(t, "Jane Doe", bill.CustomerName)
	require.Len(t, bill.Items, 1)
	assert.Equal(t, 1, bill.Items[0].Strips)
	assert.Equal(t, 0, bill.Items[0].Tablets)
	assert.True(t, bill.TotalAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, time.UTC, bill.CreatedAt.Location())

	assert.Equal(t, 90, f.store.Quantity(f.med.ID, "B-001"))
	assert.Equal(t, 1, f.store.BillCount())

	stored, err := f.store.FindBill(context.Background(), f.owner, bill.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(bill.TotalAmount))
}

func TestBillingService_CreateBill_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     func(med uuid.UUID) domain.BillRequest
		message string
	}{
		{
			name: "blank_customer_name",
			req: func(med uuid.UUID) domain.BillRequest {
				return helpers.CreateTestBillRequest("   ", helpers.Line(med, "B-001", 1))
			},
			message: "customerName is required",
		},
		{
			name: "no_items",
			req: func(uuid.UUID) domain.BillRequest {
				return helpers.CreateTestBillRequest("Jane")
			},
			message: "items must not be empty",
		},
		{
			name: "missing_medicine_id",
			req: func(uuid.UUID) domain.BillRequest {
				return helpers.CreateTestBillRequest("Jane", helpers.Line(uuid.Nil, "B-001", 1))
			},
			message: "medicineId is required",
		},
		{
			name: "missing_batch_number",
			req: func(med uuid.UUID) domain.BillRequest {
				return helpers.CreateTestBillRequest("Jane", helpers.Line(med, " ", 1))
			},
			message: "batchNumber is required",
		},
		{
			name: "negative_quantity",
			req: func(med uuid.UUID) domain.BillRequest {
				return helpers.CreateTestBillRequest("Jane", helpers.Line(med, "B-001", -3))
			},
			message: "quantity must be positive",
		},
		{
			name: "too_many_items",
			req: func(med uuid.UUID) domain.BillRequest {
				lines := make([]domain.BillItemRequest, 11)
				for i := range lines {
					lines[i] = helpers.Line(med, "B-001", 1)
				}
				return helpers.CreateTestBillRequest("Jane", lines...)
			},
			message: "at most 10 items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBillingFixture(t)

			bill, err := f.service.CreateBill(context.Background(), f.owner, tt.req(f.med.ID))
			require.Error(t, err)
			assert.Nil(t, bill)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, 100, f.store.Quantity(f.med.ID, "B-001"))
			assert.Zero(t, f.store.BillCount())
		})
	}
}

func TestBillingService_CreateBill_InsufficientStockLeavesStateUntouched(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.service.CreateBill(context.Background(), f.owner, helpers.CreateTestBillRequest("Jane",
		helpers.Line(f.med.ID, "B-001", 50),
		helpers.Line(f.med.ID, "L-100", 25),
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	be, ok := domain.AsBillingError(err)
	require.True(t, ok)
	assert.Equal(t, f.med.ID, be.MedicineID)
	assert.Equal(t, "L-100", be.BatchNumber)
	assert.Equal(t, 20, be.Available)
	assert.Equal(t, 25, be.Requested)

	assert.Equal(t, 100, f.store.Quantity(f.med.ID, "B-001"))
	assert.Equal(t, 20, f.store.Quantity(f.med.ID, "L-100"))
	assert.Zero(t, f.store.BillCount())
}

func TestBillingService_CreateBill_ConcurrentBills(t *testing.T) {
	f := newBillingFixture(t)
	f.expectAfterCommit(1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.service.CreateBill(context.Background(), f.owner,
				helpers.CreateTestBillRequest("Customer", helpers.Line(f.med.ID, "B-001", 60)))
		}()
	}
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0], domain.ErrInsufficientStock)
	assert.Equal(t, 40, f.store.Quantity(f.med.ID, "B-001"))
	assert.Equal(t, 1, f.store.BillCount())
}

func TestBillingService_CreateBill_BillInsertFailureRollsBackStock(t *testing.T) {
	f := newBillingFixture(t)
	f.store.BeforeCommit = func() error { return domain.StoreUnavailable(errors.New("connection reset")) }

	_, err := f.service.CreateBill(context.Background(), f.owner,
		helpers.CreateTestBillRequest("Jane", helpers.Line(f.med.ID, "B-001", 10)))
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	assert.Equal(t, 100, f.store.Quantity(f.med.ID, "B-001"))
	assert.Zero(t, f.store.BillCount())
}

func TestBillingService_CreateBill_RetriesConflicts(t *testing.T) {
	f := newBillingFixture(t)
	f.expectAfterCommit(1)

	attempts := 0
	f.store.BeforeCommit = func() error {
		attempts++
		if attempts < 3 {
			return domain.Conflict(f.med.ID, "B-001", errors.New("serialization failure"))
		}
		return nil
	}

	bill, err := f.service.CreateBill(context.Background(), f.owner,
		helpers.CreateTestBillRequest("Jane", helpers.Line(f.med.ID, "B-001", 10)))
	require.NoError(t, err)
	assert.NotNil(t, bill)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 90, f.store.Quantity(f.med.ID, "B-001"))
	assert.Equal(t, 1, f.store.BillCount())
}

func TestBillingService_CreateBill_GivesUpAfterRetries(t *testing.T) {
	f := newBillingFixture(t)

	attempts := 0
	f.store.BeforeCommit = func() error {
		attempts++
		return domain.Conflict(f.med.ID, "B-001", nil)
	}

	_, err := f.service.CreateBill(context.Background(), f.owner,
		helpers.CreateTestBillRequest("Jane", helpers.Line(f.med.ID, "B-001", 10)))
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1+testBillingOptions.ConflictRetries, attempts)
	assert.Equal(t, 100, f.store.Quantity(f.med.ID, "B-001"))
}

func TestBillingService_CreateBill_NonConflictErrorsAreNotRetried(t *testing.T) {
	f := newBillingFixture(t)

	attempts := 0
	f.store.BeforeCommit = func() error {
		attempts++
		return domain.StoreUnavailable(errors.New("timeout"))
	}

	_, err := f.service.CreateBill(context.Background(), f.owner,
		helpers.CreateTestBillRequest("Jane", helpers.Line(f.med.ID, "B-001", 10)))
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 1, attempts)
}

func TestBillingService_CreateBill_SideEffectFailuresAreNotSurfaced(t *testing.T) {
	f := newBillingFixture(t)
	f.cache.EXPECT().PutBill(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	f.tasks.EXPECT().EnqueueBillReceipt(gomock.Any(), gomock.Any()).Return(errors.New("queue down"))

	bill, err := f.service.CreateBill(context.Background(), f.owner,
		helpers.CreateTestBillRequest("Jane", helpers.Line(f.med.ID, "L-100", 7)))
	require.NoError(t, err)
	assert.True(t, bill.TotalAmount.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, 13, f.store.Quantity(f.med.ID, "L-100"))
}

func TestBillingService_GetBill(t *testing.T) {
	t.Run("cache_hit_skips_store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		owner, id := uuid.New(), uuid.New()

		cache := mocks.NewMockBillCache(ctrl)
		bills := mocks.NewMockBillRepository(ctrl)
		cache.EXPECT().
			GetBill(gomock.Any(), owner, id).
			Return(&domain.Bill{ID: id, OwnerID: owner, CustomerName: "cached"}, nil)

		svc := services.NewBillingService(nil, bills, cache, nil, nil, testBillingOptions, helpers.TestLogger())
		bill, err := svc.GetBill(context.Background(), owner, id)
		require.NoError(t, err)
		assert.Equal(t, "cached", bill.CustomerName)
	})

	t.Run("cache_miss_reads_store_and_fills_cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		owner, id := uuid.New(), uuid.New()

		cache := mocks.NewMockBillCache(ctrl)
		bills := mocks.NewMockBillRepository(ctrl)
		stored := &domain.Bill{ID: id, OwnerID: owner, CustomerName: "stored"}
		cache.EXPECT().GetBill(gomock.Any(), owner, id).Return(nil, errors.New("cache miss"))
		bills.EXPECT().FindBill(gomock.Any(), owner, id).Return(stored, nil)
		cache.EXPECT().PutBill(gomock.Any(), stored).Return(nil)

		svc := services.NewBillingService(nil, bills, cache, nil, nil, testBillingOptions, helpers.TestLogger())
		bill, err := svc.GetBill(context.Background(), owner, id)
		require.NoError(t, err)
		assert.Equal(t, stored, bill)
	})

	t.Run("not_found_passes_through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		owner, id := uuid.New(), uuid.New()

		bills := mocks.NewMockBillRepository(ctrl)
		bills.EXPECT().FindBill(gomock.Any(), owner, id).Return(nil, domain.BillNotFound(id))

		svc := services.NewBillingService(nil, bills, nil, nil, nil, testBillingOptions, helpers.TestLogger())
		_, err := svc.GetBill(context.Background(), owner, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBillingService_ListBills(t *testing.T) {
	ctrl := gomock.NewController(t)
	owner := uuid.New()
	bills := mocks.NewMockBillRepository(ctrl)

	bills.EXPECT().
		ListBills(gomock.Any(), owner, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, f domain.BillFilter) ([]*domain.Bill, int64, error) {
			assert.Equal(t, 2, f.Page)
			assert.Equal(t, 20, f.PageSize)
			return []*domain.Bill{{ID: uuid.New()}}, 41, nil
		})

	svc := services.NewBillingService(nil, bills, nil, nil, nil, testBillingOptions, helpers.TestLogger())
	page, err := svc.ListBills(context.Background(), owner, domain.BillFilter{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(41), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Bills, 1)

	_, err = svc.ListBills(context.Background(), owner, domain.BillFilter{
		From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

var _ ports.BillingService = (*services.BillingService)(nil)
