package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/infrastructure/monitoring"

	"github.com/shopspring/decimal"
)

// AuditReport summarizes one pass over the live directory.
type AuditReport struct {
	Customers        int
	Admins           int
	TotalBalance     decimal.Decimal
	NegativeBalances int
	CompletedAt      time.Time
}

// BalanceAuditJob walks every live customer, publishes balance gauges and
// reports any record that violates the non-negative balance rule.
type BalanceAuditJob struct {
	customerService customer.CustomerService
	logger          *slog.Logger
	now             func() time.Time
}

func NewBalanceAuditJob(customerSvc customer.CustomerService, logger *slog.Logger) *BalanceAuditJob {
	if customerSvc == nil || logger == nil {
		panic("BalanceAuditJob dependencies cannot be nil")
	}
	return &BalanceAuditJob{
		customerService: customerSvc,
		logger:          logger.With("job", "BalanceAudit"),
		now:             time.Now,
	}
}

func (j *BalanceAuditJob) Run(ctx context.Context) (AuditReport, error) {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting balance audit job.")

	customers, err := j.customerService.ListCustomers(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list customers, aborting job.", slog.Any("error", err))
		return AuditReport{}, fmt.Errorf("cannot run balance audit, failed to list customers: %w", err)
	}

	report := AuditReport{TotalBalance: decimal.Zero}
	for _, cust := range customers {
		if err := ctx.Err(); err != nil {
			j.logger.WarnContext(ctx, "Balance audit interrupted", slog.Any("error", err))
			return AuditReport{}, err
		}

		report.Customers++
		if cust.IsAdmin() {
			report.Admins++
		}
		report.TotalBalance = report.TotalBalance.Add(cust.Balance)
		if cust.Balance.IsNegative() {
			report.NegativeBalances++
			j.logger.ErrorContext(ctx, "Customer balance is negative",
				slog.Int64("customerID", cust.CustomerID),
				slog.String("balance", cust.Balance.String()))
		}
	}
	report.CompletedAt = j.now()

	total, _ := report.TotalBalance.Float64()
	monitoring.RecordAudit(report.Customers, total, report.NegativeBalances, report.CompletedAt)

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("customers", report.Customers),
		slog.Int("admins", report.Admins),
		slog.String("total_balance", report.TotalBalance.String()),
		slog.Int("negative_balances", report.NegativeBalances),
	)
	if report.NegativeBalances > 0 {
		summaryLog.WarnContext(ctx, "Balance audit job finished with violations.")
		return report, fmt.Errorf("balance audit found %d negative balances", report.NegativeBalances)
	}
	summaryLog.InfoContext(ctx, "Balance audit job finished successfully.")
	return report, nil
}
