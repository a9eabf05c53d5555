// internal/core/services/billing.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

// BillingOptions tunes CreateBill.
type BillingOptions struct {
	ConflictRetries int
	RetryBackoff    time.Duration
	MaxItems        int
}

// BillingService turns bill requests into committed bills.
type BillingService struct {
	ledger  *Ledger
	bills   ports.BillRepository
	cache   ports.BillCache
	tasks   ports.TaskEnqueuer
	metrics ports.BillingMetrics
	opts    BillingOptions
	now     func() time.Time
	logger  *slog.Logger
}

var _ ports.BillingService = (*BillingService)(nil)

// NewBillingService wires the service. cache, tasks and metrics may be nil.
func NewBillingService(
	ledger *Ledger,
	bills ports.BillRepository,
	cache ports.BillCache,
	tasks ports.TaskEnqueuer,
	metrics ports.BillingMetrics,
	opts BillingOptions,
	logger *slog.Logger,
) *BillingService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &BillingService{
		ledger:  ledger,
		bills:   bills,
		cache:   cache,
		tasks:   tasks,
		metrics: metrics,
		opts:    opts,
		now:     time.Now,
		logger:  logger.With(slog.String("service", "billing")),
	}
}

// CreateBill deducts stock for every item and persists one bill in the same
// transaction. Ledger errors are returned as they are.
func (s *BillingService) CreateBill(ctx context.Context, ownerID uuid.UUID, req domain.BillRequest) (*domain.Bill, error) {
	start := time.Now()

	if ownerID == uuid.Nil {
		return nil, s.fail(domain.InvalidRequest("owner is required"))
	}
	req.Normalize()
	if err := req.Validate(s.opts.MaxItems); err != nil {
		return nil, s.fail(err)
	}

	var (
		bill *domain.Bill
		err  error
	)
	for attempt := 0; ; attempt++ {
		bill, err = s.tryCreate(ctx, ownerID, req)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= s.opts.ConflictRetries {
			return nil, s.fail(err)
		}

		s.metrics.ConflictRetried()
		s.logger.WarnContext(ctx, "bill conflicted, retrying",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if err := sleepCtx(ctx, s.opts.RetryBackoff*time.Duration(attempt+1)); err != nil {
			return nil, s.fail(domain.StoreUnavailable(err))
		}
	}

	elapsed := time.Since(start)
	s.metrics.BillCreated(len(bill.Items), bill.TotalAmount, elapsed)
	s.logger.InfoContext(ctx, "bill created",
		slog.String("bill_id", bill.ID.String()),
		slog.String("owner_id", ownerID.String()),
		slog.Int("items", len(bill.Items)),
		slog.String("total", bill.TotalAmount.StringFixed(domain.CurrencyScale)),
		slog.Duration("elapsed_ms", elapsed))

	s.afterCommit(ctx, bill)
	return bill, nil
}

func (s *BillingService) tryCreate(ctx context.Context, ownerID uuid.UUID, req domain.BillRequest) (*domain.Bill, error) {
	var bill *domain.Bill
	_, err := s.ledger.ProcessBill(ctx, ownerID, req.Items,
		func(ctx context.Context, tx ports.StockTx, items []domain.BillItem, total decimal.Decimal) error {
			b := domain.NewBill(ownerID, req.CustomerName, items, total, s.now())
			if err := tx.InsertBill(ctx, b); err != nil {
				return err
			}
			bill = b
			return nil
		})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// afterCommit runs best-effort side effects; the bill is already durable.
func (s *BillingService) afterCommit(ctx context.Context, bill *domain.Bill) {
	if s.cache != nil {
		if err := s.cache.PutBill(ctx, bill); err != nil {
			s.logger.WarnContext(ctx, "failed to cache bill",
				slog.String("bill_id", bill.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	if s.tasks != nil {
		if err := s.tasks.EnqueueBillReceipt(ctx, bill); err != nil {
			s.logger.WarnContext(ctx, "failed to enqueue receipt",
				slog.String("bill_id", bill.ID.String()),
				slog.String("error", err.Error()))
		}
	}
}

// GetBill reads through the cache. Bills never change, so a cached copy
// never goes stale.
func (s *BillingService) GetBill(ctx context.Context, ownerID, billID uuid.UUID) (*domain.Bill, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetBill(ctx, ownerID, billID); err == nil {
			return cached, nil
		}
	}

	bill, err := s.bills.FindBill(ctx, ownerID, billID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.PutBill(ctx, bill); err != nil {
			s.logger.DebugContext(ctx, "failed to cache bill", slog.String("error", err.Error()))
		}
	}
	return bill, nil
}

func (s *BillingService) ListBills(ctx context.Context, ownerID uuid.UUID, filter domain.BillFilter) (*ports.BillPage, error) {
	filter.Normalize()
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.To.After(filter.From) {
		return nil, domain.InvalidRequest("to must be after from")
	}

	bills, total, err := s.bills.ListBills(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	if bills == nil {
		bills = []*domain.Bill{}
	}

	pages := int(total) / filter.PageSize
	if int(total)%filter.PageSize != 0 {
		pages++
	}

	return &ports.BillPage{
		Bills:      bills,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
		TotalPages: pages,
	}, nil
}

func (s *BillingService) fail(err error) error {
	s.metrics.BillFailed(domain.KindOf(err))
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
