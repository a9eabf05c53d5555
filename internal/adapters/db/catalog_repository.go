// internal/adapters/db/catalog_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const batchColumns = `batch_number, variant, manufacture_date, expiry_date, quantity, price, is_strip_based, tablets_per_strip`

type catalogRepository struct {
	db     *Database
	logger *slog.Logger
}

func NewCatalogRepository(db *Database, logger *slog.Logger) ports.CatalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "catalog")),
	}
}

func (r *catalogRepository) FindMedicine(ctx context.Context, ownerID, medicineID uuid.UUID) (*domain.Medicine, error) {
	return r.findOne(ctx, squirrel.Eq{"id": medicineID, "owner_id": ownerID}, medicineID)
}

func (r *catalogRepository) FindMedicineByName(ctx context.Context, ownerID uuid.UUID, name, company string) (*domain.Medicine, error) {
	return r.findOne(ctx, squirrel.Eq{"owner_id": ownerID, "name": name, "company": company}, uuid.Nil)
}

func (r *catalogRepository) findOne(ctx context.Context, where squirrel.Eq, medicineID uuid.UUID) (*domain.Medicine, error) {
	query, args, err := psql.
		Select("id", "owner_id", "name", "company", "created_at", "updated_at").
		From("medicines").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	m, err := scanMedicine(r.db.Pool().QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.MedicineNotFound(medicineID)
	}
	if err != nil {
		return nil, wrapf(err, "failed to find medicine")
	}

	m.Batches, err = loadBatches(ctx, r.db.Pool(), m.ID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *catalogRepository) SaveMedicine(ctx context.Context, m *domain.Medicine) error {
	stampMedicine(m)

	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := upsertMedicine(ctx, tx, m); err != nil {
			return err
		}
		for i := range m.Batches {
			if _, err := insertBatch(ctx, tx, m.ID, &m.Batches[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapf(err, "failed to save medicine")
	}

	r.logger.DebugContext(ctx, "medicine saved",
		slog.String("medicine_id", m.ID.String()),
		slog.Int("batches", len(m.Batches)))
	return nil
}

func (r *catalogRepository) AddBatch(ctx context.Context, m *domain.Medicine, b domain.Batch) (bool, error) {
	stampMedicine(m)

	var created bool
	err := r.db.Transaction(ctx, func(tx pgx.Tx) error {
		// The upsert locks the medicine row, so intakes for one medicine queue here.
		var err error
		if created, err = upsertMedicine(ctx, tx, m); err != nil {
			return err
		}

		inserted, err := insertBatch(ctx, tx, m.ID, &b)
		if err != nil {
			return err
		}
		if !inserted {
			return domain.InvalidRequest("batch %s already exists for %s", b.BatchNumber, m.Name)
		}

		m.Batches, err = loadBatches(ctx, tx, m.ID)
		return err
	})
	if err != nil {
		return false, wrapf(err, "failed to add batch")
	}

	r.logger.DebugContext(ctx, "batch added",
		slog.String("medicine_id", m.ID.String()),
		slog.String("batch_number", b.BatchNumber),
		slog.Bool("new_medicine", created))
	return created, nil
}

func stampMedicine(m *domain.Medicine) {
	now := time.Now().UTC()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// upsertMedicine keeps the id of an existing (owner, name, company) row and
// reports whether the row was inserted.
func upsertMedicine(ctx context.Context, q querier, m *domain.Medicine) (bool, error) {
	var inserted bool
	err := q.QueryRow(ctx, `
		INSERT INTO medicines (id, owner_id, name, company, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, name, company) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, (xmax = 0)`,
		m.ID, m.OwnerID, m.Name, m.Company, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID, &m.CreatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert medicine: %w", err)
	}
	return inserted, nil
}

// insertBatch reports false when the batch number is already stored.
func insertBatch(ctx context.Context, q querier, medicineID uuid.UUID, b *domain.Batch) (bool, error) {
	query, args, err := psql.
		Insert("medicine_batches").
		Columns("medicine_id", "position", "batch_number", "variant", "manufacture_date", "expiry_date",
			"quantity", "price", "is_strip_based", "tablets_per_strip").
		Values(medicineID,
			squirrel.Expr("(SELECT COALESCE(MAX(position), 0) + 1 FROM medicine_batches WHERE medicine_id = ?)", medicineID),
			b.BatchNumber, b.Variant, nullDate(b.ManufactureDate), nullDate(b.ExpiryDate),
			b.Quantity, b.Price, b.IsStripBased, b.TabletsPerStrip).
		Suffix("ON CONFLICT (medicine_id, batch_number) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build batch insert: %w", err)
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert batch %s: %w", b.BatchNumber, err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanMedicine(row pgx.Row) (*domain.Medicine, error) {
	var m domain.Medicine
	if err := row.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Company, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func loadBatches(ctx context.Context, q querier, medicineID uuid.UUID) ([]domain.Batch, error) {
	rows, err := q.Query(ctx,
		`SELECT `+batchColumns+` FROM medicine_batches WHERE medicine_id = $1 ORDER BY position`,
		medicineID)
	if err != nil {
		return nil, wrapf(err, "failed to load batches")
	}

	batches, err := ScanMany(rows, func(rows pgx.Rows) (*domain.Batch, error) {
		return scanBatch(rows)
	})
	if err != nil {
		return nil, wrapf(err, "failed to scan batches")
	}

	out := make([]domain.Batch, 0, len(batches))
	for _, b := range batches {
		out = append(out, *b)
	}
	return out, nil
}

func scanBatch(row pgx.Row) (*domain.Batch, error) {
	var (
		b        domain.Batch
		mfg, exp pgtype.Date
	)
	if err := row.Scan(&b.BatchNumber, &b.Variant, &mfg, &exp, &b.Quantity, &b.Price, &b.IsStripBased, &b.TabletsPerStrip); err != nil {
		return nil, err
	}
	if mfg.Valid {
		b.ManufactureDate = mfg.Time
	}
	if exp.Valid {
		b.ExpiryDate = exp.Time
	}
	return &b, nil
}

func nullDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: !t.IsZero()}
}
