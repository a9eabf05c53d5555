// test/helpers/memstore.go
package helpers

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
)

// MemStore is an in-memory catalog and bill store with per-batch row locks.
// Writes made inside WithinTx are applied on commit only, so it behaves like
// the Postgres adapter for ledger and service tests.
type MemStore struct {
	mu        sync.Mutex
	medicines map[uuid.UUID]*domain.Medicine
	bills     map[uuid.UUID]*domain.Bill
	locks     map[memKey]chan struct{}

	// BeforeCommit, when set, runs after fn succeeded and before the writes
	// are applied. Returning an error aborts the transaction.
	BeforeCommit func() error
}

type memKey struct {
	medicineID  uuid.UUID
	batchNumber string
}

var (
	_ ports.TxManager         = (*MemStore)(nil)
	_ ports.CatalogRepository = (*MemStore)(nil)
	_ ports.BillRepository    = (*MemStore)(nil)
)

func NewMemStore() *MemStore {
	return &MemStore{
		medicines: make(map[uuid.UUID]*domain.Medicine),
		bills:     make(map[uuid.UUID]*domain.Bill),
		locks:     make(map[memKey]chan struct{}),
	}
}

// Seed stores medicines as they are, ids included.
func (s *MemStore) Seed(medicines ...*domain.Medicine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range medicines {
		s.medicines[m.ID] = cloneMedicine(m)
	}
}

// Quantity returns the committed quantity of a batch, or -1 if absent.
func (s *MemStore) Quantity(medicineID uuid.UUID, batchNumber string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.medicines[medicineID]
	if !ok {
		return -1
	}
	if b := m.FindBatch(batchNumber); b != nil {
		return b.Quantity
	}
	return -1
}

// BillCount returns how many bills have been committed.
func (s *MemStore) BillCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bills)
}

func (s *MemStore) lockFor(k memKey) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[k]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[k] = l
	}
	return l
}

// WithinTx implements ports.TxManager.
func (s *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.StockTx) error) (err error) {
	tx := &memTx{store: s, deducted: make(map[memKey]int)}
	defer tx.release()

	if err := ctx.Err(); err != nil {
		return domain.StoreUnavailable(err)
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.StoreUnavailable(err)
	}
	if s.BeforeCommit != nil {
		if err := s.BeforeCommit(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, n := range tx.deducted {
		s.medicines[k.medicineID].FindBatch(k.batchNumber).Quantity -= n
	}
	for _, b := range tx.bills {
		s.bills[b.ID] = cloneBill(b)
	}
	return nil
}

type memTx struct {
	store    *MemStore
	held     []chan struct{}
	deducted map[memKey]int
	bills    []*domain.Bill
}

func (t *memTx) release() {
	for _, l := range t.held {
		<-l
	}
	t.held = nil
}

func (t *memTx) LockBatch(ctx context.Context, ownerID, medicineID uuid.UUID, batchNumber string) (*domain.Batch, error) {
	if t.snapshot(ownerID, medicineID, batchNumber) == nil {
		return nil, nil
	}

	l := t.store.lockFor(memKey{medicineID, batchNumber})
	select {
	case l <- struct{}{}:
		t.held = append(t.held, l)
	case <-ctx.Done():
		return nil, domain.StoreUnavailable(ctx.Err())
	}

	// Re-read under the lock: a committer may have changed it meanwhile.
	return t.snapshot(ownerID, medicineID, batchNumber), nil
}

func (t *memTx) snapshot(ownerID, medicineID uuid.UUID, batchNumber string) *domain.Batch {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	m, ok := t.store.medicines[medicineID]
	if !ok || m.OwnerID != ownerID {
		return nil
	}
	b := m.FindBatch(batchNumber)
	if b == nil {
		return nil
	}
	out := *b
	return &out
}

func (t *memTx) LookupMedicine(_ context.Context, ownerID, medicineID uuid.UUID) (*domain.Medicine, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	m, ok := t.store.medicines[medicineID]
	if !ok || m.OwnerID != ownerID {
		return nil, nil
	}
	head := *m
	head.Batches = nil
	return &head, nil
}

func (t *memTx) DeductStock(_ context.Context, medicineID uuid.UUID, batchNumber string, tablets int) (bool, error) {
	k := memKey{medicineID, batchNumber}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	m, ok := t.store.medicines[medicineID]
	if !ok {
		return false, nil
	}
	b := m.FindBatch(batchNumber)
	if b == nil || b.Quantity-t.deducted[k] < tablets {
		return false, nil
	}
	t.deducted[k] += tablets
	return true, nil
}

func (t *memTx) InsertBill(_ context.Context, bill *domain.Bill) error {
	if bill == nil || bill.ID == uuid.Nil {
		return errors.New("bill id is required")
	}
	t.bills = append(t.bills, bill)
	return nil
}

func (s *MemStore) FindMedicine(_ context.Context, ownerID, medicineID uuid.UUID) (*domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.medicines[medicineID]
	if !ok || m.OwnerID != ownerID {
		return nil, domain.MedicineNotFound(medicineID)
	}
	return cloneMedicine(m), nil
}

func (s *MemStore) FindMedicineByName(_ context.Context, ownerID uuid.UUID, name, company string) (*domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.byNameLocked(ownerID, name, company); ok {
		return cloneMedicine(m), nil
	}
	return nil, &domain.BillingError{Kind: domain.ErrNotFound, Message: "medicine " + name + " not found"}
}

func (s *MemStore) SaveMedicine(_ context.Context, m *domain.Medicine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.resolveLocked(m)
	for _, b := range m.Batches {
		if stored.FindBatch(b.BatchNumber) == nil {
			stored.Batches = append(stored.Batches, b)
		}
	}
	m.ID = stored.ID
	return nil
}

func (s *MemStore) AddBatch(_ context.Context, m *domain.Medicine, b domain.Batch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.byNameLocked(m.OwnerID, m.Name, m.Company)
	stored := s.resolveLocked(m)
	if stored.FindBatch(b.BatchNumber) != nil {
		return false, domain.InvalidRequest("batch %s already exists for %s", b.BatchNumber, m.Name)
	}
	stored.Batches = append(stored.Batches, b)

	m.ID = stored.ID
	m.CreatedAt = stored.CreatedAt
	m.Batches = slices.Clone(stored.Batches)
	return !existed, nil
}

// resolveLocked returns the stored medicine for m by id, then by
// (owner, name, company), creating an empty one when neither matches.
func (s *MemStore) resolveLocked(m *domain.Medicine) *domain.Medicine {
	if stored, ok := s.medicines[m.ID]; ok && m.ID != uuid.Nil {
		return stored
	}
	if stored, ok := s.byNameLocked(m.OwnerID, m.Name, m.Company); ok {
		return stored
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	stored := cloneMedicine(m)
	stored.Batches = nil
	s.medicines[stored.ID] = stored
	return stored
}

func (s *MemStore) byNameLocked(ownerID uuid.UUID, name, company string) (*domain.Medicine, bool) {
	for _, m := range s.medicines {
		if m.OwnerID == ownerID && m.Name == name && m.Company == company {
			return m, true
		}
	}
	return nil, false
}

func (s *MemStore) SaveBill(_ context.Context, bill *domain.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[bill.ID]; ok {
		return errors.New("bill already exists")
	}
	s.bills[bill.ID] = cloneBill(bill)
	return nil
}

func (s *MemStore) FindBill(_ context.Context, ownerID, billID uuid.UUID) (*domain.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[billID]
	if !ok || b.OwnerID != ownerID {
		return nil, domain.BillNotFound(billID)
	}
	return cloneBill(b), nil
}

func (s *MemStore) ListBills(_ context.Context, ownerID uuid.UUID, filter domain.BillFilter) ([]*domain.Bill, int64, error) {
	filter.Normalize()

	s.mu.Lock()
	var matched []*domain.Bill
	for _, b := range s.bills {
		if b.OwnerID != ownerID {
			continue
		}
		if !filter.From.IsZero() && b.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !b.CreatedAt.Before(filter.To) {
			continue
		}
		matched = append(matched, cloneBill(b))
	}
	s.mu.Unlock()

	slices.SortFunc(matched, func(a, b *domain.Bill) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})

	total := int64(len(matched))
	start := min(filter.Offset(), len(matched))
	end := min(start+filter.PageSize, len(matched))
	return matched[start:end], total, nil
}

func cloneMedicine(m *domain.Medicine) *domain.Medicine {
	out := *m
	out.Batches = slices.Clone(m.Batches)
	return &out
}

func cloneBill(b *domain.Bill) *domain.Bill {
	out := *b
	out.Items = slices.Clone(b.Items)
	return &out
}
