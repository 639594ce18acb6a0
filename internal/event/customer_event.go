package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	routingKeyCustomerCreated = "customer.created"
	routingKeyCustomerUpdated = "customer.updated"
	routingKeyCustomerDeleted = "customer.deleted"
	routingKeyBalanceChanged  = "customer.balance.changed"
)

type EventPublisher interface {
	PublishCustomerCreated(ctx context.Context, event CustomerCreatedEvent) error
	PublishCustomerUpdated(ctx context.Context, event CustomerUpdatedEvent) error
	PublishCustomerDeleted(ctx context.Context, event CustomerDeletedEvent) error
	PublishBalanceChanged(ctx context.Context, event BalanceChangedEvent) error
}

// CustomerEventPayload never carries the credential hash.
type CustomerEventPayload struct {
	CustomerID    int64           `json:"customerId"`
	Name          string          `json:"name"`
	DateOfBirth   string          `json:"dob"`
	City          string          `json:"city"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	Role          string          `json:"role"`
	CreateDate    time.Time       `json:"createDate"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type CustomerCreatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type CustomerUpdatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type CustomerDeletedEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	CustomerID int64     `json:"customerId"`
	DeletedBy  int64     `json:"deletedBy,omitempty"`
}

type BalanceChangedEvent struct {
	Timestamp  time.Time       `json:"timestamp"`
	CustomerID int64           `json:"customerId"`
	Operation  string          `json:"operation"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishCustomerCreated(context.Context, CustomerCreatedEvent) error { return nil }
func (NoopPublisher) PublishCustomerUpdated(context.Context, CustomerUpdatedEvent) error { return nil }
func (NoopPublisher) PublishCustomerDeleted(context.Context, CustomerDeletedEvent) error { return nil }
func (NoopPublisher) PublishBalanceChanged(context.Context, BalanceChangedEvent) error   { return nil }

var _ EventPublisher = NoopPublisher{}

type ctxKeyActor struct{}

// WithActor records the customer id performing the request so lifecycle events can name it.
func WithActor(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, ctxKeyActor{}, actorID)
}

func ActorFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKeyActor{}).(int64)
	return id, ok
}
