package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const customerColumns = `id, name, date_of_birth, city, account_number, balance, password_hash, role, created_at, updated_at`

const (
	insertCustomerSQL = `
        INSERT INTO customers (name, date_of_birth, city, account_number, balance, password_hash, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	findCustomerByIDSQL = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE id = $1 AND deleted_at IS NULL`

	findCustomersByCitySQL = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE city = $1 AND deleted_at IS NULL
        ORDER BY id ASC`

	findCustomersBornOnOrBeforeSQL = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE date_of_birth <= $1 AND deleted_at IS NULL
        ORDER BY id ASC`

	findAllCustomersSQL = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE deleted_at IS NULL
        ORDER BY id ASC`

	lockCustomerSQL = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE id = $1 AND deleted_at IS NULL
        FOR UPDATE`

	updateCustomerSQL = `
        UPDATE customers
        SET name = $1,
            date_of_birth = $2,
            city = $3,
            balance = $4,
            updated_at = NOW()
        WHERE id = $5
        RETURNING updated_at`

	// Rows are tombstoned so ids and account numbers are never handed out again.
	deleteCustomerSQL = `
        UPDATE customers
        SET deleted_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND deleted_at IS NULL`
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *CustomerRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *CustomerRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.DebugContext(ctx, "Rollback after finished transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to rollback transaction: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*customer.Customer, error) {
	var (
		cust customer.Customer
		role string
	)
	err := row.Scan(
		&cust.CustomerID,
		&cust.Name,
		&cust.DateOfBirth,
		&cust.City,
		&cust.AccountNumber,
		&cust.Balance,
		&cust.PasswordHash,
		&role,
		&cust.CreateDate,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cust.Role = customer.Role(role)
	return &cust, nil
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	logCtx := r.logger.With(slog.String("account_number", cust.AccountNumber))
	logCtx.DebugContext(ctx, "Attempting to insert new customer")

	start := time.Now()
	err := r.db.QueryRow(ctx, insertCustomerSQL,
		cust.Name,
		cust.DateOfBirth,
		cust.City,
		cust.AccountNumber,
		cust.Balance,
		cust.PasswordHash,
		string(cust.Role),
	).Scan(
		&cust.CustomerID,
		&cust.CreateDate,
		&cust.UpdatedAt,
	)
	observe("InsertCustomer", start, err)

	if err != nil {
		translatedErr := translateDBError(err, logCtx)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			logCtx.WarnContext(ctx, "Failed to insert customer due to unique constraint violation")
			return translatedErr
		}
		logCtx.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	logCtx.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	start := time.Now()
	cust, err := scanCustomer(r.db.QueryRow(ctx, findCustomerByIDSQL, customerID))
	observe("FindCustomerByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}
	return cust, nil
}

func (r *CustomerRepository) FindByCity(ctx context.Context, city string) ([]*customer.Customer, error) {
	return r.queryCustomers(ctx, "FindCustomersByCity", findCustomersByCitySQL, city)
}

func (r *CustomerRepository) FindBornOnOrBefore(ctx context.Context, cutoff time.Time) ([]*customer.Customer, error) {
	return r.queryCustomers(ctx, "FindCustomersBornOnOrBefore", findCustomersBornOnOrBeforeSQL, cutoff)
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	return r.queryCustomers(ctx, "FindAllCustomers", findAllCustomersSQL)
}

func (r *CustomerRepository) queryCustomers(ctx context.Context, queryName, query string, args ...any) ([]*customer.Customer, error) {
	logCtx := r.logger.With(slog.String("operation", queryName))

	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		observe(queryName, start, err)
		logCtx.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			observe(queryName, start, err)
			logCtx.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}

	err = rows.Err()
	observe(queryName, start, err)
	if err != nil {
		logCtx.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished finding customers", slog.Int("count", len(customers)))
	return customers, nil
}

// Update locks the row with SELECT ... FOR UPDATE so concurrent mutations of
// the same customer are applied one after another.
func (r *CustomerRepository) Update(ctx context.Context, customerID int64, mutate customer.MutateFunc) (*customer.Customer, error) {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer r.RollbackTx(ctx, tx)

	start := time.Now()
	cust, err := scanCustomer(tx.QueryRow(ctx, lockCustomerSQL, customerID))
	observe("LockCustomer", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logCtx.WarnContext(ctx, "Customer not found for update")
			return nil, apperrors.ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Failed to lock customer row", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to lock customer: %w", apperrors.ErrDatabase, err)
	}

	if err := mutate(cust); err != nil {
		logCtx.DebugContext(ctx, "Mutation rejected, rolling back", slog.Any("error", err))
		return nil, err
	}

	start = time.Now()
	err = tx.QueryRow(ctx, updateCustomerSQL,
		cust.Name,
		cust.DateOfBirth,
		cust.City,
		cust.Balance,
		customerID,
	).Scan(&cust.UpdatedAt)
	observe("UpdateCustomer", start, err)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return nil, translateDBError(err, logCtx)
	}

	if err := r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	logCtx.InfoContext(ctx, "Customer updated successfully")
	return cust, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) error {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))

	start := time.Now()
	cmdTag, err := r.db.Exec(ctx, deleteCustomerSQL, customerID)
	observe("DeleteCustomer", start, err)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to execute delete customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		logCtx.WarnContext(ctx, "Delete affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	logCtx.InfoContext(ctx, "Customer deleted successfully")
	return nil
}
