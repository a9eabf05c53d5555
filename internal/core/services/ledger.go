// internal/core/services/ledger.go
package services

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

// FinalizeFunc runs inside the ledger transaction after every deduction has
// been written and before commit. An error aborts the whole transaction.
type FinalizeFunc func(ctx context.Context, tx ports.StockTx, items []domain.BillItem, total decimal.Decimal) error

// LedgerResult is what a committed ProcessBill produced.
type LedgerResult struct {
	Items []domain.BillItem
	Total decimal.Decimal
}

// Ledger validates, prices and deducts the items of one bill atomically.
type Ledger struct {
	txm    ports.TxManager
	logger *slog.Logger
}

func NewLedger(txm ports.TxManager, logger *slog.Logger) *Ledger {
	return &Ledger{txm: txm, logger: logger.With(slog.String("service", "ledger"))}
}

type batchKey struct {
	medicineID  uuid.UUID
	batchNumber string
}

func compareKeys(a, b batchKey) int {
	if c := bytes.Compare(a.medicineID[:], b.medicineID[:]); c != 0 {
		return c
	}
	return strings.Compare(a.batchNumber, b.batchNumber)
}

// ProcessBill either commits every deduction in items and returns the priced
// lines, or changes nothing and returns the first failure in request order.
func (l *Ledger) ProcessBill(ctx context.Context, ownerID uuid.UUID, items []domain.BillItemRequest, finalize FinalizeFunc) (*LedgerResult, error) {
	if len(items) == 0 {
		return nil, domain.InvalidRequest("items must not be empty")
	}

	var result *LedgerResult
	err := l.txm.WithinTx(ctx, func(ctx context.Context, tx ports.StockTx) error {
		res, staged, err := l.stage(ctx, tx, ownerID, items)
		if err != nil {
			return err
		}

		if err := l.writeDeductions(ctx, tx, staged); err != nil {
			return err
		}

		if finalize != nil {
			if err := finalize(ctx, tx, res.Items, res.Total); err != nil {
				return err
			}
		}

		result = res
		return nil
	})
	if err != nil {
		l.logger.DebugContext(ctx, "bill aborted",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	return result, nil
}

// stage locks every referenced batch in key order, then walks the items in
// request order against the locked quantities.
func (l *Ledger) stage(ctx context.Context, tx ports.StockTx, ownerID uuid.UUID, items []domain.BillItemRequest) (*LedgerResult, map[batchKey]int, error) {
	keys := make([]batchKey, 0, len(items))
	seen := make(map[batchKey]struct{}, len(items))
	for _, it := range items {
		k := batchKey{medicineID: it.MedicineID, batchNumber: it.BatchNumber}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	locked := make(map[batchKey]*domain.Batch, len(keys))
	for _, k := range keys {
		b, err := tx.LockBatch(ctx, ownerID, k.medicineID, k.batchNumber)
		if err != nil {
			return nil, nil, err
		}
		locked[k] = b
	}

	medicines := make(map[uuid.UUID]*domain.Medicine)
	staged := make(map[batchKey]int, len(keys))
	res := &LedgerResult{Items: make([]domain.BillItem, 0, len(items)), Total: decimal.Zero}

	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, nil, domain.InvalidRequest("quantity must be positive for batch %s", it.BatchNumber)
		}

		med, ok := medicines[it.MedicineID]
		if !ok {
			var err error
			med, err = tx.LookupMedicine(ctx, ownerID, it.MedicineID)
			if err != nil {
				return nil, nil, err
			}
			medicines[it.MedicineID] = med
		}
		if med == nil {
			return nil, nil, domain.MedicineNotFound(it.MedicineID)
		}

		k := batchKey{medicineID: it.MedicineID, batchNumber: it.BatchNumber}
		batch := locked[k]
		if batch == nil {
			return nil, nil, domain.BatchNotFound(it.MedicineID, it.BatchNumber)
		}

		available := batch.Quantity - staged[k]
		if available < it.Quantity {
			return nil, nil, domain.InsufficientStock(it.MedicineID, it.BatchNumber, available, it.Quantity)
		}

		line, err := domain.Price(*batch, it.Quantity)
		if err != nil {
			return nil, nil, err
		}

		staged[k] += it.Quantity
		res.Items = append(res.Items, domain.BillItem{
			MedicineID:   it.MedicineID,
			MedicineName: med.Name,
			BatchNumber:  it.BatchNumber,
			Quantity:     it.Quantity,
			Price:        line.Amount,
			Strips:       line.Strips,
			Tablets:      line.Tablets,
		})
		res.Total = res.Total.Add(line.Amount)
	}

	return res, staged, nil
}

func (l *Ledger) writeDeductions(ctx context.Context, tx ports.StockTx, staged map[batchKey]int) error {
	keys := make([]batchKey, 0, len(staged))
	for k := range staged {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	for _, k := range keys {
		ok, err := tx.DeductStock(ctx, k.medicineID, k.batchNumber, staged[k])
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict(k.medicineID, k.batchNumber, nil)
		}
	}
	return nil
}
