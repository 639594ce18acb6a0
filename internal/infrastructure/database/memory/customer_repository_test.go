package memory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() *CustomerRepository {
	return NewCustomerRepository(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, repo *CustomerRepository, name, city, acct string, dob time.Time, balance int64) *customer.Customer {
	t.Helper()
	c := customer.NewCustomer(name, dob, city, acct, decimal.NewFromInt(balance), "hash", customer.RoleUser)
	require.NoError(t, repo.Save(context.Background(), c))
	return c
}

func TestSaveAssignsIncreasingIDs(t *testing.T) {
	repo := newRepo()

	a := seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 100)
	b := seed(t, repo, "Bob", "LA", "B1", date(1990, 1, 1), 0)

	assert.Equal(t, int64(1), a.CustomerID)
	assert.Equal(t, int64(2), b.CustomerID)
}

func TestSaveRejectsDuplicateAccountNumber(t *testing.T) {
	repo := newRepo()
	seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 100)

	dup := customer.NewCustomer("Other", date(1980, 1, 1), "NYC", "A1", decimal.Zero, "hash", customer.RoleUser)
	err := repo.Save(context.Background(), dup)

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	all, _ := repo.FindAll(context.Background())
	assert.Len(t, all, 1)
}

func TestDeletedIdentifiersAreNeverReused(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a := seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 100)

	require.NoError(t, repo.Delete(ctx, a.CustomerID))

	again := customer.NewCustomer("Alice", date(1950, 1, 1), "NYC", "A1", decimal.Zero, "hash", customer.RoleUser)
	assert.ErrorIs(t, repo.Save(ctx, again), apperrors.ErrAlreadyExists, "account number of a deleted customer stays retired")

	next := seed(t, repo, "Bob", "LA", "B1", date(1990, 1, 1), 0)
	assert.Equal(t, int64(2), next.CustomerID)
}

func TestFindByIDReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a := seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 100)

	got, err := repo.FindByID(ctx, a.CustomerID)
	require.NoError(t, err)
	got.Balance = decimal.NewFromInt(1_000_000)

	again, err := repo.FindByID(ctx, a.CustomerID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(again.Balance))

	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFindByCityAndBirthDate(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 100)
	seed(t, repo, "Bob", "LA", "B1", date(1990, 1, 1), 0)
	seed(t, repo, "Carol", "NYC", "C1", date(1966, 10, 16), 0)

	nyc, err := repo.FindByCity(ctx, "NYC")
	require.NoError(t, err)
	require.Len(t, nyc, 2)
	assert.Equal(t, "Alice", nyc[0].Name)
	assert.Equal(t, "Carol", nyc[1].Name)

	paris, err := repo.FindByCity(ctx, "Paris")
	require.NoError(t, err)
	assert.NotNil(t, paris)
	assert.Empty(t, paris)

	nycLower, err := repo.FindByCity(ctx, "nyc")
	require.NoError(t, err)
	assert.Empty(t, nycLower, "city match is exact")

	seniors, err := repo.FindBornOnOrBefore(ctx, date(1966, 10, 16))
	require.NoError(t, err)
	require.Len(t, seniors, 2)
	assert.Equal(t, "Alice", seniors[0].Name)
	assert.Equal(t, "Carol", seniors[1].Name)
}

func TestUpdateAppliesMutation(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a := seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 100)

	updated, err := repo.Update(ctx, a.CustomerID, func(c *customer.Customer) error {
		c.Credit(decimal.NewFromInt(50))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(updated.Balance))
	stored, _ := repo.FindByID(ctx, a.CustomerID)
	assert.True(t, decimal.NewFromInt(150).Equal(stored.Balance))
}

func TestUpdateRejectedMutationLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a := seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 100)

	_, err := repo.Update(ctx, a.CustomerID, func(c *customer.Customer) error {
		c.Rename("Mallory")
		return errors.New("rejected")
	})

	assert.EqualError(t, err, "rejected")
	stored, _ := repo.FindByID(ctx, a.CustomerID)
	assert.Equal(t, "Alice", stored.Name)
}

func TestUpdateCannotChangeIdentity(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a := seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 100)

	updated, err := repo.Update(ctx, a.CustomerID, func(c *customer.Customer) error {
		c.CustomerID = 42
		c.AccountNumber = "Z9"
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, a.CustomerID, updated.CustomerID)
	assert.Equal(t, "A1", updated.AccountNumber)
}

func TestUpdateAndDeleteMissingCustomer(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()

	_, err := repo.Update(ctx, 1, func(*customer.Customer) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 1), apperrors.ErrNotFound)
}

func TestConcurrentDepositsAreSerialized(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a := seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 0)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, a.CustomerID, func(c *customer.Customer) error {
				c.Credit(decimal.NewFromInt(10))
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.FindByID(ctx, a.CustomerID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(stored.Balance), "got %s", stored.Balance)
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	a := seed(t, repo, "Alice", "NYC", "A1", date(1950, 1, 1), 100)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, a.CustomerID, func(c *customer.Customer) error {
				return c.Debit(decimal.NewFromInt(60))
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, customer.ErrInsufficientFunds)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	stored, _ := repo.FindByID(ctx, a.CustomerID)
	assert.True(t, decimal.NewFromInt(40).Equal(stored.Balance))
}
