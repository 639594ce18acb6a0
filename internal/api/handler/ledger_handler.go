package handler

import (
	"context"
	"log/slog"
	"net/http"

	"customer-ledger/internal/api/handler/dto"
	"customer-ledger/internal/domain/ledger"

	"github.com/shopspring/decimal"
)

type LedgerHandler struct {
	service ledger.LedgerService
	logger  *slog.Logger
}

func NewLedgerHandler(s ledger.LedgerService, l *slog.Logger) *LedgerHandler {
	if s == nil {
		panic("ledger service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LedgerHandler{
		service: s,
		logger:  l.With("component", "LedgerHandler"),
	}
}

// customerFromPath reads {customerID} and checks it against the token subject.
func (h *LedgerHandler) customerFromPath(r *http.Request) (int64, error) {
	customerID, err := parseIDParam(r, "customerID")
	if err != nil {
		return 0, err
	}
	if err := requireSubject(r, customerID); err != nil {
		return 0, err
	}
	return customerID, nil
}

// GetBalance handles GET /customers/{customerID}/balance
// @Summary Read a balance
// @Tags Ledger
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.BalanceResponse "Current balance"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID"
// @Failure 403 {object} dto.ErrorResponse "Token belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/balance [get]
// @Security BearerAuth
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	customerID, err := h.customerFromPath(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Rejected balance request", slog.Any("error", err))
		respondError(w, err)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), customerID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to read balance", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.BalanceResponse{CustomerID: customerID, Balance: dto.Money(balance)})
}

// Deposit handles POST /customers/{customerID}/deposit
// @Summary Deposit funds
// @Tags Ledger
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body dto.AmountRequest true "Amount to deposit"
// @Success 200 {object} dto.BalanceChangeResponse "Deposit applied"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount"
// @Failure 403 {object} dto.ErrorResponse "Token belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/deposit [post]
// @Security BearerAuth
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.moveFunds(w, r, "Deposit successful", h.service.Deposit)
}

// Withdraw handles POST /customers/{customerID}/withdraw
// @Summary Withdraw funds
// @Description Fails with INSUFFICIENT_FUNDS when the amount exceeds the balance.
// @Tags Ledger
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body dto.AmountRequest true "Amount to withdraw"
// @Success 200 {object} dto.BalanceChangeResponse "Withdrawal applied"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount or insufficient funds"
// @Failure 403 {object} dto.ErrorResponse "Token belongs to another customer"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/withdraw [post]
// @Security BearerAuth
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.moveFunds(w, r, "Withdrawal successful", h.service.Withdraw)
}

type fundsOperation func(ctx context.Context, customerID int64, amount decimal.Decimal) (decimal.Decimal, error)

func (h *LedgerHandler) moveFunds(w http.ResponseWriter, r *http.Request, message string, op fundsOperation) {
	customerID, err := h.customerFromPath(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Rejected funds request", slog.Any("error", err))
		respondError(w, err)
		return
	}

	var req dto.AmountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, err)
		return
	}
	amount, err := dto.ParseAmount(req.Amount, "amount")
	if err != nil {
		respondError(w, err)
		return
	}

	newBalance, err := op(r.Context(), customerID, amount)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service rejected funds movement", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.BalanceChangeResponse{Message: message, NewBalance: dto.Money(newBalance)})
}
