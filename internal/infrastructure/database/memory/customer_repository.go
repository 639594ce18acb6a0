package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/pkg/apperrors"
)

type record struct {
	mu   sync.Mutex
	cust customer.Customer
}

// CustomerRepository keeps customers in process memory. The map lock guards
// membership only; each record has its own lock so updates to different
// customers never wait on each other.
type CustomerRepository struct {
	mu      sync.RWMutex
	records map[int64]*record
	// retired holds every account number ever issued, including deleted ones.
	retired map[string]struct{}
	nextID  int64
	logger  *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(logger *slog.Logger) *CustomerRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return &CustomerRepository{
		records: make(map[int64]*record),
		retired: make(map[string]struct{}),
		logger:  logger.With("component", "MemoryCustomerRepository"),
	}
}

func clone(c *customer.Customer) *customer.Customer {
	cp := *c
	return &cp
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.retired[cust.AccountNumber]; taken {
		r.logger.WarnContext(ctx, "Account number already issued", slog.String("account_number", cust.AccountNumber))
		return fmt.Errorf("%w: account number %s", apperrors.ErrAlreadyExists, cust.AccountNumber)
	}

	r.nextID++
	now := time.Now()
	cust.CustomerID = r.nextID
	cust.CreateDate = now
	cust.UpdatedAt = now

	r.records[cust.CustomerID] = &record{cust: *cust}
	r.retired[cust.AccountNumber] = struct{}{}

	r.logger.DebugContext(ctx, "Customer stored", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) lookup(customerID int64) (*record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[customerID]
	return rec, ok
}

func (r *CustomerRepository) FindByID(_ context.Context, customerID int64) (*customer.Customer, error) {
	rec, ok := r.lookup(customerID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return clone(&rec.cust), nil
}

func (r *CustomerRepository) FindByCity(_ context.Context, city string) ([]*customer.Customer, error) {
	return r.filter(func(c *customer.Customer) bool { return c.City == city }), nil
}

func (r *CustomerRepository) FindBornOnOrBefore(_ context.Context, cutoff time.Time) ([]*customer.Customer, error) {
	return r.filter(func(c *customer.Customer) bool { return c.BornOnOrBefore(cutoff) }), nil
}

func (r *CustomerRepository) FindAll(_ context.Context) ([]*customer.Customer, error) {
	return r.filter(func(*customer.Customer) bool { return true }), nil
}

// filter snapshots each record under its own lock and returns matches ordered
// by id.
func (r *CustomerRepository) filter(keep func(*customer.Customer) bool) []*customer.Customer {
	r.mu.RLock()
	recs := make([]*record, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	out := make([]*customer.Customer, 0)
	for _, rec := range recs {
		rec.mu.Lock()
		snapshot := clone(&rec.cust)
		rec.mu.Unlock()
		if keep(snapshot) {
			out = append(out, snapshot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

func (r *CustomerRepository) Update(ctx context.Context, customerID int64, mutate customer.MutateFunc) (*customer.Customer, error) {
	rec, ok := r.lookup(customerID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	// A concurrent Delete may have won the race for this record.
	if _, live := r.lookup(customerID); !live {
		return nil, apperrors.ErrNotFound
	}

	working := clone(&rec.cust)
	if err := mutate(working); err != nil {
		return nil, err
	}
	working.CustomerID = rec.cust.CustomerID
	working.AccountNumber = rec.cust.AccountNumber
	working.UpdatedAt = time.Now()
	rec.cust = *working

	r.logger.DebugContext(ctx, "Customer updated", slog.Int64("customerID", customerID))
	return clone(working), nil
}

func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) error {
	rec, ok := r.lookup(customerID)
	if !ok {
		return apperrors.ErrNotFound
	}

	// Waits for an in-flight update on this record to finish.
	rec.mu.Lock()
	defer rec.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, live := r.records[customerID]; !live {
		return apperrors.ErrNotFound
	}
	delete(r.records, customerID)

	r.logger.DebugContext(ctx, "Customer deleted", slog.Int64("customerID", customerID))
	return nil
}
