package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"customer-ledger/internal/api/handler/dto"
	"customer-ledger/internal/api/middleware"
	"customer-ledger/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

const genericErrorMessage = "An unexpected error occurred."

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apperrors.NewValidationError("", "request body is required")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return apperrors.NewValidationError("", fmt.Sprintf("malformed request body: %v", err))
	}
	return dto.Validate(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation, apperrors.KindInsufficientFunds:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindAccessDenied:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError converts any error into the structured error body. Internal
// failures never leak their cause to the client.
func respondError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)
	detail := dto.ErrorDetail{Code: string(kind), Message: genericErrorMessage}

	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case kind == apperrors.KindInternal:
		slog.Default().Error("Unhandled internal error", "error", err)
	case errors.As(err, &validationError):
		detail.Message, detail.Field = validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		detail.Message = appErr.Message
	default:
		detail.Message = err.Error()
	}

	respondJSON(w, status, dto.ErrorResponse{Error: detail})
}

func parseIDParam(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, apperrors.NewValidationError(param, "missing from URL path")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(param, "must be a positive integer")
	}
	return id, nil
}

func parseAdminIDQuery(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("admin_id")
	if raw == "" {
		return 0, apperrors.NewValidationError("admin_id", "this field is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("admin_id", "must be a positive integer")
	}
	return id, nil
}

// requireSubject rejects a request whose bearer token names a different
// customer than the one the request acts as. Without a token (auth disabled)
// every id is accepted.
func requireSubject(r *http.Request, customerID int64) error {
	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok || subject == customerID {
		return nil
	}
	return fmt.Errorf("%w: token subject %d may not act as customer %d", apperrors.ErrAccessDenied, subject, customerID)
}

// NotFound answers unrouted paths.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: dto.ErrorDetail{
		Code:    string(apperrors.KindNotFound),
		Message: "This URL does not exist",
	}})
}

func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: dto.ErrorDetail{
		Code:    "METHOD_NOT_ALLOWED",
		Message: "Method not allowed for this URL",
	}})
}
