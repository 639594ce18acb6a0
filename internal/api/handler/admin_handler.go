package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"customer-ledger/internal/api/handler/dto"
	"customer-ledger/internal/domain/ledger"
	"customer-ledger/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the privileged queries and edits. Every route names its
// acting administrator through admin_id.
type AdminHandler struct {
	service ledger.LedgerService
	logger  *slog.Logger
}

func NewAdminHandler(s ledger.LedgerService, l *slog.Logger) *AdminHandler {
	if s == nil {
		panic("ledger service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &AdminHandler{
		service: s,
		logger:  l.With("component", "AdminHandler"),
	}
}

func (h *AdminHandler) adminFromQuery(r *http.Request) (int64, error) {
	adminID, err := parseAdminIDQuery(r)
	if err != nil {
		return 0, err
	}
	return adminID, requireSubject(r, adminID)
}

// ListByCity handles GET /customers/city/{city}
// @Summary List customers in a city
// @Tags Admin
// @Produce json
// @Param city path string true "City"
// @Param admin_id query int true "Acting administrator ID"
// @Success 200 {object} dto.CustomerListResponse "Matching customers"
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid admin_id"
// @Failure 403 {object} dto.ErrorResponse "Actor is not an administrator"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/city/{city} [get]
// @Security BearerAuth
func (h *AdminHandler) ListByCity(w http.ResponseWriter, r *http.Request) {
	adminID, err := h.adminFromQuery(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Rejected city query", slog.Any("error", err))
		respondError(w, err)
		return
	}

	city := strings.TrimSpace(chi.URLParam(r, "city"))
	if city == "" {
		respondError(w, apperrors.NewValidationError("city", "this field is required"))
		return
	}

	customers, err := h.service.ListByCity(r.Context(), adminID, city)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to list customers by city", slog.Int64("adminID", adminID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(customers))
}

// ListSeniorCitizens handles GET /admin/senior-citizens
// @Summary List senior citizens
// @Description Customers aged 60 or over on the current UTC date.
// @Tags Admin
// @Produce json
// @Param admin_id query int true "Acting administrator ID"
// @Success 200 {object} dto.CustomerListResponse "Senior customers"
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid admin_id"
// @Failure 403 {object} dto.ErrorResponse "Actor is not an administrator"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/senior-citizens [get]
// @Security BearerAuth
func (h *AdminHandler) ListSeniorCitizens(w http.ResponseWriter, r *http.Request) {
	adminID, err := h.adminFromQuery(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Rejected senior citizen query", slog.Any("error", err))
		respondError(w, err)
		return
	}

	customers, err := h.service.ListSeniorCitizens(r.Context(), adminID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to list senior citizens", slog.Int64("adminID", adminID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(customers))
}

// ChangeName handles PUT /admin/users/{userID}/name
// @Summary Rename a customer
// @Tags Admin
// @Accept json
// @Produce json
// @Param userID path int true "Target customer ID" Minimum(1)
// @Param request body dto.ChangeNameRequest true "New name and acting administrator"
// @Success 200 {object} dto.MessageResponse "Name updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 403 {object} dto.ErrorResponse "Actor is not an administrator"
// @Failure 404 {object} dto.ErrorResponse "Target customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/users/{userID}/name [put]
// @Security BearerAuth
func (h *AdminHandler) ChangeName(w http.ResponseWriter, r *http.Request) {
	targetID, err := parseIDParam(r, "userID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.ChangeNameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, err)
		return
	}
	if err := requireSubject(r, req.AdminID); err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.ChangeName(r.Context(), req.AdminID, targetID, req.Name); err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to change name", slog.Int64("targetID", targetID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.MessageResponse{Message: "Name updated successfully."})
}

// ChangeDateOfBirth handles PUT /admin/users/{userID}/dob
// @Summary Change a customer's date of birth
// @Tags Admin
// @Accept json
// @Produce json
// @Param userID path int true "Target customer ID" Minimum(1)
// @Param request body dto.ChangeDateOfBirthRequest true "New date of birth (YYYY-MM-DD) and acting administrator"
// @Success 200 {object} dto.MessageResponse "Date of birth updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 403 {object} dto.ErrorResponse "Actor is not an administrator"
// @Failure 404 {object} dto.ErrorResponse "Target customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/users/{userID}/dob [put]
// @Security BearerAuth
func (h *AdminHandler) ChangeDateOfBirth(w http.ResponseWriter, r *http.Request) {
	targetID, err := parseIDParam(r, "userID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.ChangeDateOfBirthRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, err)
		return
	}
	if err := requireSubject(r, req.AdminID); err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.ChangeDateOfBirth(r.Context(), req.AdminID, targetID, req.DateOfBirth); err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to change date of birth", slog.Int64("targetID", targetID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.MessageResponse{Message: "DOB updated successfully."})
}

// DeleteUser handles DELETE /admin/users/{userID}
// @Summary Delete a customer
// @Tags Admin
// @Accept json
// @Produce json
// @Param userID path int true "Target customer ID" Minimum(1)
// @Param request body dto.AdminRequest true "Acting administrator"
// @Success 200 {object} dto.MessageResponse "Customer deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 403 {object} dto.ErrorResponse "Actor is not an administrator"
// @Failure 404 {object} dto.ErrorResponse "Target customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/users/{userID} [delete]
// @Security BearerAuth
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID, err := parseIDParam(r, "userID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.AdminRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, err)
		return
	}
	if err := requireSubject(r, req.AdminID); err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteUser(r.Context(), req.AdminID, targetID); err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to delete customer", slog.Int64("targetID", targetID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.MessageResponse{Message: "User deleted successfully."})
}
