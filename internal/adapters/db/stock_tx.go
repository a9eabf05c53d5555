// internal/adapters/db/stock_tx.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

// TxManager runs billing transactions at READ COMMITTED. Batch rows are
// locked with SELECT ... FOR UPDATE and decremented with a guarded UPDATE.
type TxManager struct {
	db     *Database
	logger *slog.Logger
}

func NewTxManager(db *Database, logger *slog.Logger) *TxManager {
	return &TxManager{db: db, logger: logger.With(slog.String("component", "stock_tx"))}
}

var _ ports.TxManager = (*TxManager)(nil)

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.StockTx) error) error {
	err := m.db.TransactionWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &stockTx{tx: tx})
	})
	return classifyError(err)
}

type stockTx struct {
	tx pgx.Tx
}

func (s *stockTx) LockBatch(ctx context.Context, ownerID, medicineID uuid.UUID, batchNumber string) (*domain.Batch, error) {
	row := s.tx.QueryRow(ctx, `
		SELECT b.batch_number, b.variant, b.manufacture_date, b.expiry_date, b.quantity, b.price, b.is_strip_based, b.tablets_per_strip
		FROM medicine_batches b
		JOIN medicines m ON m.id = b.medicine_id
		WHERE m.owner_id = $1 AND b.medicine_id = $2 AND b.batch_number = $3
		FOR UPDATE OF b`,
		ownerID, medicineID, batchNumber)

	b, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapf(err, "failed to lock batch %s", batchNumber)
	}
	return b, nil
}

func (s *stockTx) LookupMedicine(ctx context.Context, ownerID, medicineID uuid.UUID) (*domain.Medicine, error) {
	// KEY SHARE keeps the medicine from being deleted mid-bill without
	// blocking intake, which only touches updated_at.
	row := s.tx.QueryRow(ctx, `
		SELECT id, owner_id, name, company, created_at, updated_at
		FROM medicines WHERE id = $1 AND owner_id = $2
		FOR KEY SHARE`,
		medicineID, ownerID)

	m, err := scanMedicine(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapf(err, "failed to look up medicine")
	}
	return m, nil
}

func (s *stockTx) DeductStock(ctx context.Context, medicineID uuid.UUID, batchNumber string, tablets int) (bool, error) {
	tag, err := s.tx.Exec(ctx, `
		UPDATE medicine_batches
		SET quantity = quantity - $3, updated_at = now()
		WHERE medicine_id = $1 AND batch_number = $2 AND quantity >= $3`,
		medicineID, batchNumber, tablets)
	if err != nil {
		return false, wrapf(err, "failed to deduct stock from batch %s", batchNumber)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *stockTx) InsertBill(ctx context.Context, bill *domain.Bill) error {
	if err := insertBill(ctx, s.tx, bill); err != nil {
		return classifyError(fmt.Errorf("bill %s: %w", bill.ID, err))
	}
	return nil
}
