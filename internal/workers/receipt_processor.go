// internal/workers/receipt_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReceiptProcessor renders committed bills to xlsx and stores them.
type ReceiptProcessor struct {
	bills   ports.BillRepository
	storage ports.FileStorage
	logger  *slog.Logger
}

func NewReceiptProcessor(bills ports.BillRepository, storage ports.FileStorage, logger *slog.Logger) *ReceiptProcessor {
	return &ReceiptProcessor{
		bills:   bills,
		storage: storage,
		logger:  logger.With(slog.String("processor", "receipt")),
	}
}

// ProcessBillReceipt handles TypeBillReceipt. Receipts are written once; a
// retried task finds the object and stops.
func (p *ReceiptProcessor) ProcessBillReceipt(ctx context.Context, t *asynq.Task) error {
	var payload BillReceiptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	key := ReceiptKey(payload.OwnerID, payload.BillID)

	exists, err := p.storage.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check receipt: %w", err)
	}
	if exists {
		p.logger.DebugContext(ctx, "receipt already stored", slog.String("key", key))
		return nil
	}

	bill, err := p.bills.FindBill(ctx, payload.OwnerID, payload.BillID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("bill %s: %v: %w", payload.BillID, err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to load bill: %w", err)
	}

	data, err := RenderReceipt(bill)
	if err != nil {
		return fmt.Errorf("failed to render receipt: %w", err)
	}

	location, err := p.storage.Upload(ctx, key, bytes.NewReader(data), XLSXContentType)
	if err != nil {
		return fmt.Errorf("failed to store receipt: %w", err)
	}

	p.logger.InfoContext(ctx, "receipt stored",
		slog.String("bill_id", bill.ID.String()),
		slog.String("location", location),
		slog.Int("size", len(data)))
	return nil
}
