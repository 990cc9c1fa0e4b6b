package session

import (
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/sakachris/ecom-frontend/pkg/errors"

	"github.com/sakachris/ecom-frontend/internal/upstream"
)

// ErrNotVerified means the account exists but its email has not been
// confirmed. Callers use it to offer a "resend verification" action instead
// of a plain credentials error.
var ErrNotVerified = errors.New("email not verified")

// classifyAuthError maps an upstream auth failure onto the storefront error
// taxonomy. The upstream reports an unverified account with the same status
// as bad credentials, so the only signal is the message text. The substring
// match is case-insensitive and deliberately loose.
func classifyAuthError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, upstream.ErrRefreshExpired) {
		return apperrors.Unauthorized("session expired, please sign in again")
	}

	var apiErr *upstream.APIError
	if !errors.As(err, &apiErr) {
		return apperrors.ServiceUnavailable("authentication service unreachable")
	}

	msg := apiErr.Message()
	if strings.Contains(strings.ToLower(msg), "not verified") {
		return ErrNotVerified
	}

	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			msg = "invalid email or password"
		}
		return apperrors.Unauthorized(msg)
	case http.StatusBadRequest:
		if msg == "" {
			msg = "invalid request"
		}
		return apperrors.InvalidInput(msg)
	case http.StatusNotFound:
		return apperrors.Unauthorized("account not found")
	default:
		if apiErr.Status >= 500 {
			return apperrors.ServiceUnavailable("authentication service error")
		}
		return apperrors.InvalidInput(msg)
	}
}
