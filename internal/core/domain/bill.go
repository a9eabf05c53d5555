// internal/core/domain/bill.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillItem is one priced line. Tablets holds the leftover not forming a strip.
type BillItem struct {
	MedicineID   uuid.UUID       `json:"medicineId"`
	MedicineName string          `json:"medicineName"`
	BatchNumber  string          `json:"batchNumber"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Strips       int             `json:"strips"`
	Tablets      int             `json:"tablets"`
}

// Bill is immutable once persisted.
type Bill struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"ownerId"`
	CustomerName string          `json:"customerName"`
	Items        []BillItem      `json:"items"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func NewBill(ownerID uuid.UUID, customerName string, items []BillItem, total decimal.Decimal, now time.Time) *Bill {
	return &Bill{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		CustomerName: customerName,
		Items:        items,
		TotalAmount:  total,
		CreatedAt:    now.UTC(),
	}
}

// BillItemRequest asks for Quantity tablets from one batch.
type BillItemRequest struct {
	MedicineID  uuid.UUID `json:"medicineId"`
	BatchNumber string    `json:"batchNumber"`
	Quantity    int       `json:"quantity"`
}

type BillRequest struct {
	CustomerName string            `json:"customerName"`
	Items        []BillItemRequest `json:"items"`
}

// Normalize trims the customer name and batch numbers in place.
func (r *BillRequest) Normalize() {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	for i := range r.Items {
		r.Items[i].BatchNumber = strings.TrimSpace(r.Items[i].BatchNumber)
	}
}

// Validate rejects malformed requests. maxItems <= 0 disables the size cap.
func (r *BillRequest) Validate(maxItems int) error {
	if r.CustomerName == "" {
		return InvalidRequest("customerName is required")
	}
	if len(r.Items) == 0 {
		return InvalidRequest("items must not be empty")
	}
	if maxItems > 0 && len(r.Items) > maxItems {
		return InvalidRequest("a bill may hold at most %d items", maxItems)
	}
	for i, item := range r.Items {
		if item.MedicineID == uuid.Nil {
			return InvalidRequest("items[%d]: medicineId is required", i)
		}
		if item.BatchNumber == "" {
			return InvalidRequest("items[%d]: batchNumber is required", i)
		}
		if item.Quantity <= 0 {
			return InvalidRequest("items[%d]: quantity must be positive", i)
		}
	}
	return nil
}

// BillFilter narrows a bill listing. Zero times are open bounds.
type BillFilter struct {
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

func (f *BillFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

func (f BillFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
