package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"customer-ledger/internal/event"
	"customer-ledger/internal/infrastructure/monitoring"
	"customer-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	inputValidationPassed = "Input validation passed"
	customerNotFound      = "Customer not found by repository"
)

// NewCustomerParams carries the raw creation attributes. DateOfBirth and Role
// are validated and parsed by CreateCustomer.
type NewCustomerParams struct {
	Name          string
	DateOfBirth   string
	City          string
	AccountNumber string
	Balance       decimal.Decimal
	Password      string
	Role          string
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, params NewCustomerParams) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	FindByCity(ctx context.Context, city string) ([]*Customer, error)
	FindBornOnOrBefore(ctx context.Context, cutoff time.Time) ([]*Customer, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
	UpdateCustomer(ctx context.Context, customerID int64, mutate MutateFunc) (*Customer, error)
	DeleteCustomer(ctx context.Context, customerID int64) error
	Authenticate(ctx context.Context, customerID int64, password string) (*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

func NewCustomerService(repo CustomerRepository, eventPublisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if eventPublisher == nil {
		logger.Warn("Warning: No event publisher provided to NewCustomerService, events will be dropped")
		eventPublisher = event.NoopPublisher{}
	}

	return &customerService{
		repo:   repo,
		pub:    eventPublisher,
		logger: logger.With(slog.String("component", "customerService")),
		now:    time.Now,
	}
}

func NewCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID:    cust.CustomerID,
		Name:          cust.Name,
		DateOfBirth:   cust.DateOfBirth.Format(DateLayout),
		City:          cust.City,
		AccountNumber: cust.AccountNumber,
		Balance:       cust.Balance,
		Role:          string(cust.Role),
		CreateDate:    cust.CreateDate,
		UpdatedAt:     cust.UpdatedAt,
	}
}

func (s *customerService) publishCustomerUpdateEvent(ctx context.Context, customer *Customer) {
	evt := event.CustomerUpdatedEvent{
		Timestamp: s.now(),
		Payload:   NewCustomerEventPayload(customer),
	}
	logCtx := s.logger.With(slog.Int64("customerID", customer.CustomerID))

	if err := s.pub.PublishCustomerUpdated(ctx, evt); err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish customer update event", slog.Any("error", err))
	} else {
		logCtx.DebugContext(ctx, "Successfully published customer update event")
	}
}

func (s *customerService) validateNewCustomer(params NewCustomerParams) (*Customer, error) {
	name := strings.TrimSpace(params.Name)
	city := strings.TrimSpace(params.City)
	accountNumber := strings.TrimSpace(params.AccountNumber)

	if name == "" {
		return nil, apperrors.NewValidationError("name", "cannot be empty")
	}
	if city == "" {
		return nil, apperrors.NewValidationError("city", "cannot be empty")
	}
	if accountNumber == "" {
		return nil, apperrors.NewValidationError("account_number", "cannot be empty")
	}
	if params.Password == "" {
		return nil, apperrors.NewValidationError("password", "cannot be empty")
	}
	role, err := ParseRole(params.Role)
	if err != nil {
		return nil, err
	}
	dob, err := ParseDateOfBirth(params.DateOfBirth, s.now())
	if err != nil {
		return nil, err
	}
	if params.Balance.IsNegative() {
		return nil, apperrors.NewValidationError("balance", "cannot be negative")
	}
	if err := CheckAmountRange("balance", params.Balance); err != nil {
		return nil, err
	}

	return NewCustomer(name, dob, city, accountNumber, params.Balance, "", role), nil
}

func (s *customerService) CreateCustomer(ctx context.Context, params NewCustomerParams) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	customer, err := s.validateNewCustomer(params)
	if err != nil {
		s.logger.WarnContext(ctx, "Validation failed for new customer", slog.Any("error", err))
		return nil, err
	}
	logCtx := s.logger.With(slog.String("account_number", customer.AccountNumber), slog.String("role", string(customer.Role)))
	logCtx.DebugContext(ctx, inputValidationPassed)

	customer.PasswordHash, err = HashPassword(params.Password)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to hash customer credential", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInternalServer, err)
	}

	logCtx.DebugContext(ctx, "Calling repository Save")
	if err := s.repo.Save(ctx, customer); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			logCtx.WarnContext(ctx, "Account number already exists")
			return nil, ErrDuplicateAccountNumber
		}
		logCtx.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	logCtx = logCtx.With(slog.Int64("customerID", customer.CustomerID))
	monitoring.RecordCustomerCreated()

	createdEvent := event.CustomerCreatedEvent{
		Timestamp: s.now(),
		Payload:   NewCustomerEventPayload(customer),
	}
	if pubErr := s.pub.PublishCustomerCreated(ctx, createdEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer created, but FAILED to publish creation event", slog.Any("error", pubErr))
	}

	logCtx.InfoContext(ctx, "Successfully created new customer")
	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(ctx, "Calling repository FindByID")

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}

		logCtx.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	return customer, nil
}

func (s *customerService) FindByCity(ctx context.Context, city string) ([]*Customer, error) {
	logCtx := s.logger.With(slog.String("city", city))
	logCtx.DebugContext(ctx, "Calling repository FindByCity")

	customers, err := s.repo.FindByCity(ctx, city)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error listing customers by city", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers in city %q: %w", city, err)
	}

	logCtx.InfoContext(ctx, "Successfully retrieved customers by city", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) FindBornOnOrBefore(ctx context.Context, cutoff time.Time) ([]*Customer, error) {
	logCtx := s.logger.With(slog.String("cutoff", cutoff.Format(DateLayout)))
	logCtx.DebugContext(ctx, "Calling repository FindBornOnOrBefore")

	customers, err := s.repo.FindBornOnOrBefore(ctx, cutoff)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error listing customers by date of birth", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers born on or before %s: %w", cutoff.Format(DateLayout), err)
	}

	logCtx.InfoContext(ctx, "Successfully retrieved customers by date of birth", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	s.logger.DebugContext(ctx, "Calling repository FindAll")

	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, mutate MutateFunc) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(ctx, "Calling repository Update")

	updated, err := s.repo.Update(ctx, customerID, mutate)
	if err != nil {
		switch kind := apperrors.KindOf(err); kind {
		case apperrors.KindNotFound:
			logCtx.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		case apperrors.KindInternal:
			logCtx.ErrorContext(ctx, "Repository failed to update customer", slog.Any("error", err))
			return nil, fmt.Errorf("failed to update customer %d: %w", customerID, err)
		default:
			logCtx.WarnContext(ctx, "Customer update rejected", slog.String("kind", string(kind)), slog.Any("error", err))
			return nil, err
		}
	}

	s.publishCustomerUpdateEvent(ctx, updated)
	logCtx.InfoContext(ctx, "Successfully updated customer")
	return updated, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(ctx, "Calling repository Delete")

	if err := s.repo.Delete(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, customerNotFound)
			return ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	deletedEvent := event.CustomerDeletedEvent{Timestamp: s.now(), CustomerID: customerID}
	if actorID, ok := event.ActorFromContext(ctx); ok {
		deletedEvent.DeletedBy = actorID
	}
	if pubErr := s.pub.PublishCustomerDeleted(ctx, deletedEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer deleted, but FAILED to publish deletion event", slog.Any("error", pubErr))
	}

	logCtx.InfoContext(ctx, "Successfully deleted customer")
	return nil
}

// Authenticate verifies the stored credential. A missing customer and a wrong
// password produce the same ErrUnauthorized.
func (s *customerService) Authenticate(ctx context.Context, customerID int64, password string) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Authentication failed: unknown customer")
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		logCtx.ErrorContext(ctx, "Repository error during authentication", slog.Any("error", err))
		return nil, fmt.Errorf("failed to authenticate customer %d: %w", customerID, err)
	}

	if !customer.CheckPassword(password) {
		logCtx.WarnContext(ctx, "Authentication failed: credential mismatch")
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	logCtx.InfoContext(ctx, "Customer authenticated")
	return customer, nil
}
