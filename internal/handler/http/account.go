package http

import (
	"log/slog"
	"net/http"

	apperrors "github.com/sakachris/ecom-frontend/pkg/errors"
	"github.com/sakachris/ecom-frontend/pkg/httputil"
	"github.com/sakachris/ecom-frontend/pkg/validator"

	"github.com/sakachris/ecom-frontend/internal/domain"
	"github.com/sakachris/ecom-frontend/internal/service"
)

// AccountHandler exposes the signed-in account's profile.
type AccountHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

// NewAccountHandler creates the account handler.
func NewAccountHandler(profiles *service.ProfileService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{profiles: profiles, logger: logger}
}

type profileUpdateRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,e164"`
}

// requireAuth rejects requests from signed-out sessions before any upstream
// call happens.
func (h *AccountHandler) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	m := ManagerFromContext(r.Context())
	if !m.Snapshot().Authenticated {
		httputil.WriteError(w, r, apperrors.Unauthorized("sign in required"), h.logger)
		return false
	}
	return true
}

// GetProfile returns the account profile.
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w, r) {
		return
	}
	m := ManagerFromContext(r.Context())
	p, err := h.profiles.Get(r.Context(), m)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// UpdateProfile applies a partial profile change.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w, r) {
		return
	}

	var req profileUpdateRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.FirstName == nil && req.LastName == nil && req.PhoneNumber == nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("no fields to update"), h.logger)
		return
	}

	m := ManagerFromContext(r.Context())
	p, err := h.profiles.Update(r.Context(), m, domain.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// DeleteAccount deletes the account upstream and signs the session out.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w, r) {
		return
	}
	m := ManagerFromContext(r.Context())
	if err := h.profiles.DeleteAccount(r.Context(), m); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
