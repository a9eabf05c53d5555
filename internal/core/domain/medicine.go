// internal/core/domain/medicine.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch is one manufacturing lot of a medicine. Quantity is always in tablets.
type Batch struct {
	BatchNumber     string          `json:"batchNumber"`
	Variant         string          `json:"variant,omitempty"`
	ManufactureDate time.Time       `json:"manufactureDate"`
	ExpiryDate      time.Time       `json:"expiryDate"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	IsStripBased    bool            `json:"isStripBased"`
	TabletsPerStrip int             `json:"tabletsPerStrip"`
}

func (b *Batch) Validate() error {
	if strings.TrimSpace(b.BatchNumber) == "" {
		return InvalidRequest("batchNumber is required")
	}
	if b.Quantity < 0 {
		return InvalidRequest("batch %s: quantity cannot be negative", b.BatchNumber)
	}
	if b.Price.IsNegative() {
		return InvalidRequest("batch %s: price cannot be negative", b.BatchNumber)
	}
	if !b.Price.Equal(b.Price.Round(PriceScale)) {
		return InvalidRequest("batch %s: price allows at most %d decimal places", b.BatchNumber, PriceScale)
	}
	if b.IsStripBased && b.TabletsPerStrip <= 0 {
		return InvalidRequest("batch %s: tabletsPerStrip must be positive for strip-based batches", b.BatchNumber)
	}
	if !b.ExpiryDate.IsZero() && !b.ManufactureDate.IsZero() && !b.ExpiryDate.After(b.ManufactureDate) {
		return InvalidRequest("batch %s: expiryDate must be after manufactureDate", b.BatchNumber)
	}
	return nil
}

// Normalize trims identifiers and clears packaging that does not apply.
func (b *Batch) Normalize() {
	b.BatchNumber = strings.TrimSpace(b.BatchNumber)
	b.Variant = strings.TrimSpace(b.Variant)
	if !b.IsStripBased {
		b.TabletsPerStrip = 0
	}
}

// Medicine is unique per (Name, Company, OwnerID).
type Medicine struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Batches   []Batch   `json:"batches"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Medicine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return InvalidRequest("name is required")
	}
	if strings.TrimSpace(m.Company) == "" {
		return InvalidRequest("company is required")
	}
	if m.OwnerID == uuid.Nil {
		return InvalidRequest("owner is required")
	}
	seen := make(map[string]struct{}, len(m.Batches))
	for i := range m.Batches {
		if err := m.Batches[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[m.Batches[i].BatchNumber]; dup {
			return InvalidRequest("batch %s already exists for %s", m.Batches[i].BatchNumber, m.Name)
		}
		seen[m.Batches[i].BatchNumber] = struct{}{}
	}
	return nil
}

// FindBatch returns a pointer into m.Batches, or nil.
func (m *Medicine) FindBatch(batchNumber string) *Batch {
	for i := range m.Batches {
		if m.Batches[i].BatchNumber == batchNumber {
			return &m.Batches[i]
		}
	}
	return nil
}

// AddBatch appends b, rejecting a batch number the medicine already holds.
func (m *Medicine) AddBatch(b Batch) error {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return err
	}
	if m.FindBatch(b.BatchNumber) != nil {
		return InvalidRequest("batch %s already exists for %s", b.BatchNumber, m.Name)
	}
	m.Batches = append(m.Batches, b)
	return nil
}

// TotalTablets sums quantity across batches.
func (m *Medicine) TotalTablets() int {
	total := 0
	for _, b := range m.Batches {
		total += b.Quantity
	}
	return total
}

// StockIntake is one batch arriving for a (name, company) pair.
type StockIntake struct {
	Name    string
	Company string
	Batch   Batch
}

func (s *StockIntake) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Company = strings.TrimSpace(s.Company)
	s.Batch.Normalize()
}

func (s *StockIntake) Validate() error {
	if s.Name == "" {
		return InvalidRequest("name is required")
	}
	if s.Company == "" {
		return InvalidRequest("company is required")
	}
	return s.Batch.Validate()
}
