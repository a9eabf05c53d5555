package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

func TestBatch_Validate(t *testing.T) {
	mfg := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		batch    domain.Batch
		errorMsg string
	}{
		{
			name:  "valid_strip_batch",
			batch: domain.Batch{BatchNumber: "B1", Quantity: 100, Price: decimal.NewFromInt(50), IsStripBased: true, TabletsPerStrip: 10, ManufactureDate: mfg, ExpiryDate: mfg.AddDate(2, 0, 0)},
		},
		{
			name:  "valid_loose_batch_without_dates",
			batch: domain.Batch{BatchNumber: "B2", Quantity: 0, Price: decimal.Zero},
		},
		{name: "missing_batch_number", batch: domain.Batch{Quantity: 1}, errorMsg: "batchNumber is required"},
		{name: "negative_quantity", batch: domain.Batch{BatchNumber: "B", Quantity: -1}, errorMsg: "quantity cannot be negative"},
		{name: "negative_price", batch: domain.Batch{BatchNumber: "B", Price: decimal.NewFromInt(-1)}, errorMsg: "price cannot be negative"},
		{name: "price_within_stored_scale", batch: domain.Batch{BatchNumber: "B", Price: decimal.RequireFromString("12.3450")}},
		{
			name:     "price_beyond_stored_scale",
			batch:    domain.Batch{BatchNumber: "B", Price: decimal.RequireFromString("12.34567")},
			errorMsg: "at most 4 decimal places",
		},
		{name: "strip_without_size", batch: domain.Batch{BatchNumber: "B", IsStripBased: true}, errorMsg: "tabletsPerStrip must be positive"},
		{
			name:     "expiry_before_manufacture",
			batch:    domain.Batch{BatchNumber: "B", ManufactureDate: mfg, ExpiryDate: mfg.AddDate(0, -1, 0)},
			errorMsg: "expiryDate must be after manufactureDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.batch.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestMedicine_AddBatch(t *testing.T) {
	m := &domain.Medicine{ID: uuid.New(), Name: "Paracetamol", Company: "Acme", OwnerID: uuid.New()}

	require.NoError(t, m.AddBatch(domain.Batch{BatchNumber: " P-1 ", Quantity: 50, Price: decimal.NewFromInt(2), TabletsPerStrip: 10}))
	require.Len(t, m.Batches, 1)
	assert.Equal(t, "P-1", m.Batches[0].BatchNumber)
	assert.Zero(t, m.Batches[0].TabletsPerStrip, "loose batches drop strip size")

	err := m.AddBatch(domain.Batch{BatchNumber: "P-1", Quantity: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Len(t, m.Batches, 1)

	require.NoError(t, m.AddBatch(domain.Batch{BatchNumber: "P-2", Quantity: 30}))
	assert.Equal(t, 80, m.TotalTablets())
	assert.NotNil(t, m.FindBatch("P-2"))
	assert.Nil(t, m.FindBatch("P-3"))
}

func TestMedicine_Validate(t *testing.T) {
	owner := uuid.New()
	base := func() *domain.Medicine {
		return &domain.Medicine{Name: "Ibuprofen", Company: "Acme", OwnerID: owner}
	}

	assert.NoError(t, base().Validate())

	m := base()
	m.Name = "  "
	assert.ErrorIs(t, m.Validate(), domain.ErrInvalidRequest)

	m = base()
	m.OwnerID = uuid.Nil
	assert.ErrorIs(t, m.Validate(), domain.ErrInvalidRequest)

	m = base()
	m.Batches = []domain.Batch{{BatchNumber: "X"}, {BatchNumber: "X"}}
	assert.ErrorContains(t, m.Validate(), "already exists")
}
