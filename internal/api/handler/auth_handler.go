package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"customer-ledger/internal/api/handler/dto"
	"customer-ledger/internal/config"
	"customer-ledger/internal/domain/customer"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

type AuthHandler struct {
	cfg     config.AuthConfig
	service customer.CustomerService
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuthHandler(cfg config.AuthConfig, s customer.CustomerService, l *slog.Logger) *AuthHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		cfg:     cfg,
		service: s,
		logger:  l.With("component", "AuthHandler"),
		now:     time.Now,
	}
}

// IssueToken exchanges a customer credential for a bearer token.
//
// @Summary Issue a JWT bearer token
// @Description Verifies the customer's password and returns an HS256 token whose subject is the customer ID.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Customer credential"
// @Success 200 {object} dto.TokenResponse "Token issued"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, err)
		return
	}

	cust, err := h.service.Authenticate(r.Context(), req.CustomerID, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	issuedAt := h.now()
	expiresAt := issuedAt.Add(h.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(cust.CustomerID, 10),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Issued bearer token", slog.Int64("customerID", cust.CustomerID))
	respondJSON(w, http.StatusOK, dto.TokenResponse{
		Token:     tokenString,
		TokenType: "Bearer",
		ExpiresAt: expiresAt.UTC(),
	})
}
