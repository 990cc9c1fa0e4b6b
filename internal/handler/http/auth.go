package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/sakachris/ecom-frontend/pkg/errors"
	"github.com/sakachris/ecom-frontend/pkg/httputil"
	"github.com/sakachris/ecom-frontend/pkg/validator"

	"github.com/sakachris/ecom-frontend/internal/session"
	"github.com/sakachris/ecom-frontend/internal/upstream"
)

// AuthHandler exposes the auth lifecycle: sign-in, registration, email
// verification, and sign-out.
type AuthHandler struct {
	logger *slog.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(logger *slog.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	PhoneNumber     string `json:"phone_number" validate:"omitempty,e164"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type resendRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// Session reports the current session snapshot. The UI calls this on load to
// decide what to render; it never fails.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	m := ManagerFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, m.Snapshot())
}

// Login signs the session in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	m := ManagerFromContext(r.Context())
	if err := m.Login(r.Context(), req.Email, req.Password); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m.Snapshot())
}

// Register creates an account. The session stays signed out until the email
// is verified and the user signs in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	m := ManagerFromContext(r.Context())
	err := m.Register(r.Context(), upstream.RegisterRequest{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m.Snapshot())
}

// VerifyEmail redeems the verification token from the emailed link.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("token is required"), h.logger)
		return
	}

	m := ManagerFromContext(r.Context())
	if err := m.VerifyEmail(r.Context(), token); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m.Snapshot())
}

// ResendVerification sends a fresh verification email.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	m := ManagerFromContext(r.Context())
	if err := m.ResendVerification(r.Context(), req.Email); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m.Snapshot())
}

// Logout signs the session out. Always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	m := ManagerFromContext(r.Context())
	m.Logout(r.Context())
	httputil.WriteJSON(w, http.StatusOK, m.Snapshot())
}

// writeAuthError renders auth failures, giving the unverified-account case
// its own code so the UI can offer the resend action.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrNotVerified) {
		httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "EMAIL_NOT_VERIFIED",
				Message: "email address is not verified",
			},
		})
		return
	}
	httputil.WriteError(w, r, err, h.logger)
}
