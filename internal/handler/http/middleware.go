package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sakachris/ecom-frontend/pkg/logger"

	"github.com/sakachris/ecom-frontend/internal/session"
)

// SessionCookieName identifies the browser context. The cookie carries an
// opaque ID only; tokens never leave the server.
const SessionCookieName = "ecom_sid"

// sessionCookieMaxAge matches the credential record TTL so a returning
// browser finds its record still present.
const sessionCookieMaxAge = 30 * 24 * time.Hour

type contextKey string

const managerKey contextKey = "session-manager"

// SessionMiddleware resolves the request's session manager from the session
// cookie, minting a new session ID for first-time visitors, and hydrates it
// before any handler runs.
func SessionMiddleware(registry *session.Registry, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(sessionCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
			}

			m := registry.Get(sid)
			ctx := logger.WithSessionID(r.Context(), sid)
			m.Hydrate(ctx)

			ctx = context.WithValue(ctx, managerKey, m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ManagerFromContext returns the session manager installed by
// SessionMiddleware, or nil outside it.
func ManagerFromContext(ctx context.Context) *session.Manager {
	m, _ := ctx.Value(managerKey).(*session.Manager)
	return m
}
