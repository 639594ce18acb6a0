package customer

import (
	"fmt"
	"strings"
	"time"

	"customer-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// DateLayout is the wire and storage format of a date of birth.
const DateLayout = "2006-01-02"

// Amounts carry at most MaxAmountScale fractional digits and
// MaxAmountIntegerDigits integer digits.
const (
	MaxAmountScale         = 8
	MaxAmountIntegerDigits = 18
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), nil
	default:
		return "", apperrors.NewValidationError("role", "invalid role, must be 'admin' or 'user'")
	}
}

type Customer struct {
	CustomerID    int64           `json:"customerId"`
	Name          string          `json:"name"`
	DateOfBirth   time.Time       `json:"dob"`
	City          string          `json:"city"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	PasswordHash  string          `json:"-"`
	Role          Role            `json:"role"`
	CreateDate    time.Time       `json:"createDate"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func NewCustomer(name string, dob time.Time, city, accountNumber string, openingBalance decimal.Decimal, passwordHash string, role Role) *Customer {
	now := time.Now()
	return &Customer{
		Name:          name,
		DateOfBirth:   dob,
		City:          city,
		AccountNumber: accountNumber,
		Balance:       openingBalance,
		PasswordHash:  passwordHash,
		Role:          role,
		CreateDate:    now,
		UpdatedAt:     now,
	}
}

func (c *Customer) IsAdmin() bool {
	return c.Role == RoleAdmin
}

func (c *Customer) Rename(name string) {
	if c.Name != name {
		c.Name = name
		c.UpdatedAt = time.Now()
	}
}

func (c *Customer) ChangeDateOfBirth(dob time.Time) {
	if !c.DateOfBirth.Equal(dob) {
		c.DateOfBirth = dob
		c.UpdatedAt = time.Now()
	}
}

// CheckAmountRange rejects amounts outside the fixed monetary range. It reads
// only the exponent and digit count and never rescales.
func CheckAmountRange(field string, amount decimal.Decimal) error {
	if amount.Exponent() < -MaxAmountScale {
		return apperrors.NewValidationError(field, fmt.Sprintf("must have at most %d decimal places", MaxAmountScale))
	}
	if amount.Exponent() > MaxAmountIntegerDigits || int64(amount.NumDigits())+int64(amount.Exponent()) > MaxAmountIntegerDigits {
		return apperrors.NewValidationError(field, "is too large")
	}
	return nil
}

func (c *Customer) Credit(amount decimal.Decimal) {
	c.Balance = c.Balance.Add(amount)
	c.UpdatedAt = time.Now()
}

// Debit fails with ErrInsufficientFunds when amount exceeds the balance; the
// full balance may be withdrawn.
func (c *Customer) Debit(amount decimal.Decimal) error {
	if amount.GreaterThan(c.Balance) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, c.Balance.String(), amount.String())
	}
	c.Balance = c.Balance.Sub(amount)
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Customer) BornOnOrBefore(cutoff time.Time) bool {
	return !c.DateOfBirth.After(cutoff)
}

func (c *Customer) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ParseDateOfBirth accepts YYYY-MM-DD dates that are not after today (UTC).
func ParseDateOfBirth(value string, today time.Time) (time.Time, error) {
	dob, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("dob", "must be a date in YYYY-MM-DD format")
	}
	if dob.After(Today(today)) {
		return time.Time{}, apperrors.NewValidationError("dob", "cannot be in the future")
	}
	return dob, nil
}

// Today truncates t to midnight UTC.
func Today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
