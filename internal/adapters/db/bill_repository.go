// internal/adapters/db/bill_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

type billRepository struct {
	db     *Database
	logger *slog.Logger
}

func NewBillRepository(db *Database, logger *slog.Logger) ports.BillRepository {
	return &billRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "bill")),
	}
}

func (r *billRepository) SaveBill(ctx context.Context, bill *domain.Bill) error {
	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		return insertBill(ctx, tx, bill)
	})
	return wrapf(err, "failed to save bill")
}

func (r *billRepository) FindBill(ctx context.Context, ownerID, billID uuid.UUID) (*domain.Bill, error) {
	row := r.db.Pool().QueryRow(ctx, `
		SELECT id, owner_id, customer_name, total_amount, created_at
		FROM bills WHERE id = $1 AND owner_id = $2`, billID, ownerID)

	bill, err := scanBill(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.BillNotFound(billID)
	}
	if err != nil {
		return nil, wrapf(err, "failed to find bill")
	}

	if err := r.attachItems(ctx, []*domain.Bill{bill}); err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *billRepository) ListBills(ctx context.Context, ownerID uuid.UUID, filter domain.BillFilter) ([]*domain.Bill, int64, error) {
	filter.Normalize()

	where := squirrel.And{squirrel.Eq{"owner_id": ownerID}}
	if !filter.From.IsZero() {
		where = append(where, squirrel.GtOrEq{"created_at": filter.From})
	}
	if !filter.To.IsZero() {
		where = append(where, squirrel.Lt{"created_at": filter.To})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("bills").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := r.db.Pool().QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, wrapf(err, "failed to count bills")
	}

	query, args, err := psql.
		Select("id", "owner_id", "customer_name", "total_amount", "created_at").
		From("bills").
		Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(filter.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapf(err, "failed to list bills")
	}
	bills, err := ScanMany(rows, func(rows pgx.Rows) (*domain.Bill, error) { return scanBill(rows) })
	if err != nil {
		return nil, 0, wrapf(err, "failed to scan bills")
	}

	if err := r.attachItems(ctx, bills); err != nil {
		return nil, 0, err
	}
	return bills, total, nil
}

func (r *billRepository) attachItems(ctx context.Context, bills []*domain.Bill) error {
	if len(bills) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Bill, len(bills))
	ids := make([]uuid.UUID, 0, len(bills))
	for _, b := range bills {
		b.Items = []domain.BillItem{}
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	query, args, err := psql.
		Select("bill_id", "medicine_id", "medicine_name", "batch_number", "quantity", "price", "strips", "tablets").
		From("bill_items").
		Where(squirrel.Eq{"bill_id": ids}).
		OrderBy("bill_id", "line_no").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build items query: %w", err)
	}

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return wrapf(err, "failed to load bill items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			billID uuid.UUID
			item   domain.BillItem
		)
		if err := rows.Scan(&billID, &item.MedicineID, &item.MedicineName, &item.BatchNumber,
			&item.Quantity, &item.Price, &item.Strips, &item.Tablets); err != nil {
			return wrapf(err, "failed to scan bill item")
		}
		if b, ok := byID[billID]; ok {
			b.Items = append(b.Items, item)
		}
	}
	return wrapf(rows.Err(), "failed to iterate bill items")
}

// insertBill writes the bill header and its lines on q, which must be a tx.
func insertBill(ctx context.Context, q querier, bill *domain.Bill) error {
	if _, err := q.Exec(ctx, `
		INSERT INTO bills (id, owner_id, customer_name, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		bill.ID, bill.OwnerID, bill.CustomerName, bill.TotalAmount, bill.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	batch := &pgx.Batch{}
	for i, item := range bill.Items {
		batch.Queue(`
			INSERT INTO bill_items (bill_id, line_no, medicine_id, medicine_name, batch_number, quantity, price, strips, tablets)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			bill.ID, i+1, item.MedicineID, item.MedicineName, item.BatchNumber,
			item.Quantity, item.Price, item.Strips, item.Tablets)
	}

	results := q.SendBatch(ctx, batch)
	for i := range bill.Items {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert bill item %d: %w", i+1, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close bill item batch: %w", err)
	}
	return nil
}

func scanBill(row pgx.Row) (*domain.Bill, error) {
	var b domain.Bill
	if err := row.Scan(&b.ID, &b.OwnerID, &b.CustomerName, &b.TotalAmount, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}
