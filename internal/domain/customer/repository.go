package customer

import (
	"context"
	"time"

	"customer-ledger/internal/pkg/apperrors"
)

var (
	ErrNotFound = &apperrors.AppError{Code: "CUSTOMER_NOT_FOUND", Message: "customer not found", Cause: apperrors.ErrNotFound}

	ErrDuplicateAccountNumber = &apperrors.AppError{Code: "DUPLICATE_ACCOUNT_NUMBER", Message: "account number already exists", Cause: apperrors.ErrAlreadyExists}

	ErrInsufficientFunds = &apperrors.AppError{Code: "INSUFFICIENT_FUNDS", Message: "insufficient funds", Cause: apperrors.ErrInsufficientFunds}
)

// MutateFunc edits a customer in place. Returning an error aborts the update
// and leaves the stored record untouched.
type MutateFunc func(c *Customer) error

type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindByCity(ctx context.Context, city string) ([]*Customer, error)

	FindBornOnOrBefore(ctx context.Context, cutoff time.Time) ([]*Customer, error)

	FindAll(ctx context.Context) ([]*Customer, error)

	// Update runs mutate against the current record while holding that record
	// exclusively, then persists the result.
	Update(ctx context.Context, customerID int64, mutate MutateFunc) (*Customer, error)

	Delete(ctx context.Context, customerID int64) error
}
