package ledger

import (
	"time"

	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/pkg/apperrors"
)

// SeniorAge is the age in whole years at which a customer counts as a senior citizen.
const SeniorAge = 60

const (
	OperationDeposit  = "deposit"
	OperationWithdraw = "withdraw"
)

// ErrAccessDenied is returned for an unknown actor and for a non-admin actor alike.
var ErrAccessDenied = &apperrors.AppError{Code: "ACCESS_DENIED", Message: "administrator privileges required", Cause: apperrors.ErrAccessDenied}

// CustomerSummary is the projection returned by privileged queries. It never
// carries the balance or the credential.
type CustomerSummary struct {
	CustomerID    int64  `json:"customerId"`
	Name          string `json:"name"`
	DateOfBirth   string `json:"dob"`
	City          string `json:"city"`
	AccountNumber string `json:"accountNumber"`
}

func Summarize(c *customer.Customer) CustomerSummary {
	return CustomerSummary{
		CustomerID:    c.CustomerID,
		Name:          c.Name,
		DateOfBirth:   c.DateOfBirth.Format(customer.DateLayout),
		City:          c.City,
		AccountNumber: c.AccountNumber,
	}
}

func summarizeAll(customers []*customer.Customer) []CustomerSummary {
	out := make([]CustomerSummary, 0, len(customers))
	for _, c := range customers {
		out = append(out, Summarize(c))
	}
	return out
}

// SeniorCutoff is the latest date of birth that still counts as senior on the
// UTC calendar day of now.
func SeniorCutoff(now time.Time) time.Time {
	return customer.Today(now).AddDate(-SeniorAge, 0, 0)
}
