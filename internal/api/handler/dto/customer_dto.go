package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/domain/ledger"
	"customer-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type CreateCustomerRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	DateOfBirth   string          `json:"dob" validate:"required"`
	City          string          `json:"city" validate:"required,max=200"`
	AccountNumber string          `json:"account_number" validate:"required,max=64"`
	Balance       json.RawMessage `json:"balance" validate:"required" swaggertype:"number"`
	Password      string          `json:"password" validate:"required"`
	Role          string          `json:"role" validate:"required"`
}

type AmountRequest struct {
	Amount json.RawMessage `json:"amount" validate:"required" swaggertype:"number"`
}

type AdminRequest struct {
	AdminID int64 `json:"admin_id" validate:"required,gt=0"`
}

type ChangeNameRequest struct {
	AdminID int64  `json:"admin_id" validate:"required,gt=0"`
	Name    string `json:"name" validate:"max=200"`
}

type ChangeDateOfBirthRequest struct {
	AdminID     int64  `json:"admin_id" validate:"required,gt=0"`
	DateOfBirth string `json:"dob"`
}

type TokenRequest struct {
	CustomerID int64  `json:"customerId" validate:"required,gt=0"`
	Password   string `json:"password" validate:"required"`
}

type CreateCustomerResponse struct {
	CustomerID int64  `json:"customerId"`
	Message    string `json:"message"`
}

type BalanceResponse struct {
	CustomerID int64       `json:"customerId"`
	Balance    json.Number `json:"balance" swaggertype:"number"`
}

type BalanceChangeResponse struct {
	Message    string      `json:"message"`
	NewBalance json.Number `json:"newBalance" swaggertype:"number"`
}

type CustomerListResponse struct {
	Customers []ledger.CustomerSummary `json:"customers"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Money renders a decimal as a bare JSON number.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// ParseAmount accepts only a JSON number literal within the monetary range.
// Strings, booleans, null and nested values are rejected.
func ParseAmount(raw json.RawMessage, field string) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, apperrors.NewValidationError(field, "this field is required")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return decimal.Zero, apperrors.NewValidationError(field, "must be a number")
	}
	num, ok := v.(json.Number)
	if !ok {
		return decimal.Zero, apperrors.NewValidationError(field, "must be a number")
	}

	amount, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError(field, "must be a number")
	}
	if err := customer.CheckAmountRange(field, amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func NewCustomerListResponse(customers []ledger.CustomerSummary) CustomerListResponse {
	if customers == nil {
		customers = []ledger.CustomerSummary{}
	}
	return CustomerListResponse{Customers: customers}
}
