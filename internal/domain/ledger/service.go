package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/event"
	"customer-ledger/internal/infrastructure/monitoring"
	"customer-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type LedgerService interface {
	AuthorizeAdmin(ctx context.Context, actorID int64) error

	GetBalance(ctx context.Context, customerID int64) (decimal.Decimal, error)

	Deposit(ctx context.Context, customerID int64, amount decimal.Decimal) (decimal.Decimal, error)

	Withdraw(ctx context.Context, customerID int64, amount decimal.Decimal) (decimal.Decimal, error)

	ListSeniorCitizens(ctx context.Context, actorID int64) ([]CustomerSummary, error)

	ListByCity(ctx context.Context, actorID int64, city string) ([]CustomerSummary, error)

	ChangeName(ctx context.Context, actorID, targetID int64, name string) error

	ChangeDateOfBirth(ctx context.Context, actorID, targetID int64, dob string) error

	DeleteUser(ctx context.Context, actorID, targetID int64) error
}

type Option func(*ledgerService)

// WithClock overrides the time source used for the senior cutoff and date checks.
func WithClock(now func() time.Time) Option {
	return func(s *ledgerService) {
		s.now = now
	}
}

type ledgerService struct {
	customers customer.CustomerService
	pub       event.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

var _ LedgerService = (*ledgerService)(nil)

func NewLedgerService(cs customer.CustomerService, pub event.EventPublisher, logger *slog.Logger, opts ...Option) LedgerService {
	if cs == nil {
		panic("customer service cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}

	s := &ledgerService{
		customers: cs,
		pub:       pub,
		logger:    logger.With(slog.String("component", "ledgerService")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizeAdmin looks the actor up on every call; nothing is cached between
// requests.
func (s *ledgerService) AuthorizeAdmin(ctx context.Context, actorID int64) error {
	logCtx := s.logger.With(slog.Int64("actorID", actorID))

	actor, err := s.customers.GetCustomer(ctx, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Access denied: unknown actor")
			return ErrAccessDenied
		}
		logCtx.ErrorContext(ctx, "Failed to resolve actor", slog.Any("error", err))
		return fmt.Errorf("failed to authorize actor %d: %w", actorID, err)
	}

	if !actor.IsAdmin() {
		logCtx.WarnContext(ctx, "Access denied: actor is not an administrator")
		return ErrAccessDenied
	}
	return nil
}

func (s *ledgerService) authorize(ctx context.Context, operation string, actorID int64) error {
	if err := s.AuthorizeAdmin(ctx, actorID); err != nil {
		if errors.Is(err, apperrors.ErrAccessDenied) {
			monitoring.RecordAccessDenied(operation)
		}
		monitoring.RecordLedgerOperation(operation, outcome(err))
		return err
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return strings.ToLower(string(apperrors.KindOf(err)))
}

func (s *ledgerService) GetBalance(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	cust, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	return cust.Balance, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.NewValidationError("amount", "must be greater than zero")
	}
	return customer.CheckAmountRange("amount", amount)
}

func (s *ledgerService) Deposit(ctx context.Context, customerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.moveFunds(ctx, OperationDeposit, customerID, amount, func(c *customer.Customer) error {
		c.Credit(amount)
		return nil
	})
}

func (s *ledgerService) Withdraw(ctx context.Context, customerID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.moveFunds(ctx, OperationWithdraw, customerID, amount, func(c *customer.Customer) error {
		return c.Debit(amount)
	})
}

// moveFunds runs the balance check and write as one serialized update on the
// target record.
func (s *ledgerService) moveFunds(ctx context.Context, operation string, customerID int64, amount decimal.Decimal, apply customer.MutateFunc) (decimal.Decimal, error) {
	logCtx := s.logger.With(slog.String("operation", operation), slog.Int64("customerID", customerID), slog.String("amount", amount.String()))

	if err := validateAmount(amount); err != nil {
		logCtx.WarnContext(ctx, "Rejected invalid amount", "error", err)
		monitoring.RecordLedgerOperation(operation, outcome(err))
		return decimal.Zero, err
	}

	updated, err := s.customers.UpdateCustomer(ctx, customerID, apply)
	monitoring.RecordLedgerOperation(operation, outcome(err))
	if err != nil {
		logCtx.WarnContext(ctx, "Balance mutation failed", slog.Any("error", err))
		return decimal.Zero, err
	}

	evt := event.BalanceChangedEvent{
		Timestamp:  s.now(),
		CustomerID: customerID,
		Operation:  operation,
		Amount:     amount,
		NewBalance: updated.Balance,
	}
	if pubErr := s.pub.PublishBalanceChanged(ctx, evt); pubErr != nil {
		logCtx.ErrorContext(ctx, "Balance changed, but FAILED to publish event", slog.Any("error", pubErr))
	}

	logCtx.InfoContext(ctx, "Balance updated", slog.String("newBalance", updated.Balance.String()))
	return updated.Balance, nil
}

func (s *ledgerService) ListSeniorCitizens(ctx context.Context, actorID int64) ([]CustomerSummary, error) {
	const operation = "list_senior_citizens"
	if err := s.authorize(ctx, operation, actorID); err != nil {
		return nil, err
	}

	customers, err := s.customers.FindBornOnOrBefore(ctx, SeniorCutoff(s.now()))
	monitoring.RecordLedgerOperation(operation, outcome(err))
	if err != nil {
		return nil, err
	}
	return summarizeAll(customers), nil
}

func (s *ledgerService) ListByCity(ctx context.Context, actorID int64, city string) ([]CustomerSummary, error) {
	const operation = "list_by_city"
	if err := s.authorize(ctx, operation, actorID); err != nil {
		return nil, err
	}

	customers, err := s.customers.FindByCity(ctx, city)
	monitoring.RecordLedgerOperation(operation, outcome(err))
	if err != nil {
		return nil, err
	}
	return summarizeAll(customers), nil
}

func (s *ledgerService) ChangeName(ctx context.Context, actorID, targetID int64, name string) error {
	const operation = "change_name"
	if err := s.authorize(ctx, operation, actorID); err != nil {
		return err
	}
	if err := s.requireTarget(ctx, operation, targetID); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		err := apperrors.NewValidationError("name", "cannot be empty")
		monitoring.RecordLedgerOperation(operation, outcome(err))
		return err
	}

	_, err := s.customers.UpdateCustomer(event.WithActor(ctx, actorID), targetID, func(c *customer.Customer) error {
		c.Rename(name)
		return nil
	})
	monitoring.RecordLedgerOperation(operation, outcome(err))
	return err
}

func (s *ledgerService) ChangeDateOfBirth(ctx context.Context, actorID, targetID int64, dob string) error {
	const operation = "change_dob"
	if err := s.authorize(ctx, operation, actorID); err != nil {
		return err
	}
	if err := s.requireTarget(ctx, operation, targetID); err != nil {
		return err
	}

	parsed, err := customer.ParseDateOfBirth(dob, s.now())
	if err != nil {
		monitoring.RecordLedgerOperation(operation, outcome(err))
		return err
	}

	_, err = s.customers.UpdateCustomer(event.WithActor(ctx, actorID), targetID, func(c *customer.Customer) error {
		c.ChangeDateOfBirth(parsed)
		return nil
	})
	monitoring.RecordLedgerOperation(operation, outcome(err))
	return err
}

// requireTarget reports a missing target before the payload is looked at.
func (s *ledgerService) requireTarget(ctx context.Context, operation string, targetID int64) error {
	if _, err := s.customers.GetCustomer(ctx, targetID); err != nil {
		monitoring.RecordLedgerOperation(operation, outcome(err))
		return err
	}
	return nil
}

func (s *ledgerService) DeleteUser(ctx context.Context, actorID, targetID int64) error {
	const operation = "delete_user"
	if err := s.authorize(ctx, operation, actorID); err != nil {
		return err
	}

	err := s.customers.DeleteCustomer(event.WithActor(ctx, actorID), targetID)
	monitoring.RecordLedgerOperation(operation, outcome(err))
	if err == nil {
		s.logger.InfoContext(ctx, "Customer deleted by administrator", slog.Int64("actorID", actorID), slog.Int64("targetID", targetID))
	}
	return err
}
