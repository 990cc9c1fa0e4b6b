package upstream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// TokenSource provides the current tokens for a session and accepts the
// outcomes of refresh attempts. The session manager implements it.
type TokenSource interface {
	// AccessToken returns the current access token, or "" when signed out.
	AccessToken() string

	// RefreshToken returns the current refresh token, or "", together with
	// the session generation it was read in.
	RefreshToken() (refresh string, gen uint64)

	// SetTokens installs a refreshed token pair produced in generation gen.
	// An empty refresh keeps the existing one. Implementations return
	// ErrSignedOut, discarding the pair, when the session has moved past gen.
	SetTokens(ctx context.Context, access, refresh string, gen uint64) error

	// ForceLogout clears the session after an unrecoverable auth failure.
	ForceLogout(ctx context.Context)
}

// AuthedClient sends bearer-authenticated requests for one session. On a 401
// it refreshes the access token and retries the request exactly once; the
// caller never sees the intermediate 401. Concurrent 401s trigger a single
// refresh call, not one per request.
type AuthedClient struct {
	api    *Client
	tokens TokenSource
	logger *slog.Logger
	group  singleflight.Group
}

// NewAuthedClient wraps api with token handling for the given session.
func NewAuthedClient(api *Client, tokens TokenSource, logger *slog.Logger) *AuthedClient {
	return &AuthedClient{
		api:    api,
		tokens: tokens,
		logger: logger,
	}
}

// DoJSON executes an authenticated JSON request. body is re-marshalled on
// retry, so the refresh-and-retry path is safe for any method. A failed
// refresh surfaces as ErrRefreshExpired after the session has been cleared;
// any other upstream rejection surfaces as *APIError.
func (a *AuthedClient) DoJSON(ctx context.Context, method, rawURL string, body, out any) error {
	access := a.tokens.AccessToken()
	err := a.do(ctx, method, rawURL, access, body, out)
	if StatusOf(err) != http.StatusUnauthorized {
		return err
	}

	access, refreshErr := a.refresh(ctx, access)
	if refreshErr != nil {
		return refreshErr
	}
	return a.do(ctx, method, rawURL, access, body, out)
}

// GetJSON is DoJSON for GET requests.
func (a *AuthedClient) GetJSON(ctx context.Context, rawURL string, out any) error {
	return a.DoJSON(ctx, http.MethodGet, rawURL, nil, out)
}

func (a *AuthedClient) do(ctx context.Context, method, rawURL, access string, body, out any) error {
	req, err := a.api.newRequest(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	return a.api.doJSON(ctx, req, out)
}

// refresh obtains a fresh access token. Requests that hit a 401 while a
// refresh is already in flight wait for that refresh instead of starting
// their own; the group is keyed by the refresh token so a re-login starts a
// clean flight. stale is the access token the 401 was earned with: if it has
// already been replaced, the replacement is used without another refresh.
func (a *AuthedClient) refresh(ctx context.Context, stale string) (string, error) {
	if cur := a.tokens.AccessToken(); cur != "" && cur != stale {
		return cur, nil
	}

	refresh, gen := a.tokens.RefreshToken()
	if refresh == "" {
		a.tokens.ForceLogout(ctx)
		return "", ErrRefreshExpired
	}

	v, err, shared := a.group.Do(refresh, func() (any, error) {
		pair, err := a.api.Refresh(ctx, refresh)
		if err != nil {
			return nil, err
		}
		switch err := a.tokens.SetTokens(ctx, pair.Access, pair.Refresh, gen); {
		case errors.Is(err, ErrSignedOut):
			return nil, err
		case err != nil:
			a.logger.WarnContext(ctx, "persisting refreshed tokens failed",
				slog.String("error", err.Error()))
		}
		return pair.Access, nil
	})
	if err != nil {
		if errors.Is(err, ErrRefreshExpired) {
			a.tokens.ForceLogout(ctx)
			return "", ErrRefreshExpired
		}
		// The session signed out mid-refresh; it is already cleared, so the
		// request just fails unauthenticated.
		if errors.Is(err, ErrSignedOut) {
			return "", ErrRefreshExpired
		}
		return "", err
	}
	if shared {
		a.logger.DebugContext(ctx, "reused in-flight token refresh")
	}
	return v.(string), nil
}
