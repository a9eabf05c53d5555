// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error kinds. Every error leaving the billing path wraps exactly one.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("concurrent modification")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// BillingError carries the kind and, where known, the offending medicine/batch.
type BillingError struct {
	Kind        error
	MedicineID  uuid.UUID
	BatchNumber string
	Message     string
	Available   int
	Requested   int
	Err         error
}

func (e *BillingError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.MedicineID != uuid.Nil {
		fmt.Fprintf(&b, " (medicine %s", e.MedicineID)
		if e.BatchNumber != "" {
			fmt.Fprintf(&b, ", batch %s", e.BatchNumber)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *BillingError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether resubmitting the whole bill may succeed.
func (e *BillingError) Retryable() bool {
	return e.Kind == ErrConflict || e.Kind == ErrStoreUnavailable
}

func InvalidRequest(format string, args ...any) error {
	return &BillingError{Kind: ErrInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func MedicineNotFound(medicineID uuid.UUID) error {
	return &BillingError{Kind: ErrNotFound, MedicineID: medicineID, Message: "medicine not found"}
}

func BatchNotFound(medicineID uuid.UUID, batchNumber string) error {
	return &BillingError{Kind: ErrNotFound, MedicineID: medicineID, BatchNumber: batchNumber, Message: "batch not found"}
}

func BillNotFound(billID uuid.UUID) error {
	return &BillingError{Kind: ErrNotFound, Message: fmt.Sprintf("bill %s not found", billID)}
}

func InsufficientStock(medicineID uuid.UUID, batchNumber string, available, requested int) error {
	return &BillingError{
		Kind:        ErrInsufficientStock,
		MedicineID:  medicineID,
		BatchNumber: batchNumber,
		Message:     fmt.Sprintf("requested %d tablets, %d available", requested, available),
		Available:   available,
		Requested:   requested,
	}
}

func Conflict(medicineID uuid.UUID, batchNumber string, cause error) error {
	return &BillingError{
		Kind:        ErrConflict,
		MedicineID:  medicineID,
		BatchNumber: batchNumber,
		Message:     "stock changed concurrently, retry the bill",
		Err:         cause,
	}
}

func StoreUnavailable(cause error) error {
	return &BillingError{Kind: ErrStoreUnavailable, Err: cause}
}

// KindOf returns a stable snake_case label for err's kind, or "internal".
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}

// AsBillingError is errors.As for *BillingError.
func AsBillingError(err error) (*BillingError, bool) {
	var be *BillingError
	ok := errors.As(err, &be)
	return be, ok
}
