package upstream

import (
	"context"
	"net/http"
	"net/url"
)

// TokenPair is the upstream's JWT pair. Refresh may be empty on refresh
// responses when the upstream does not rotate it.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResponse is the login endpoint's success shape. The name fields are
// optional; most deployments return only the token pair.
type LoginResponse struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterRequest is the payload for account creation. Password confirmation
// is a client-side check and never goes over the wire.
type RegisterRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Password    string `json:"password"`
}

// DetailResponse is the `{detail}` confirmation shape shared by the
// registration and verification endpoints.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	payload := map[string]string{"email": email, "password": password}
	req, err := c.newRequest(ctx, http.MethodPost, c.BuildURL("/auth/token/", nil), payload)
	if err != nil {
		return LoginResponse{}, err
	}
	var out LoginResponse
	if err := c.doJSON(ctx, req, &out); err != nil {
		return LoginResponse{}, err
	}
	return out, nil
}

// Refresh exchanges a refresh token for a new access token. The upstream
// rejecting the token (any 4xx) means the session is unrecoverable and maps
// to ErrRefreshExpired.
func (c *Client) Refresh(ctx context.Context, refresh string) (TokenPair, error) {
	payload := map[string]string{"refresh": refresh}
	req, err := c.newRequest(ctx, http.MethodPost, c.BuildURL("/auth/token/refresh/", nil), payload)
	if err != nil {
		return TokenPair{}, err
	}
	var pair TokenPair
	if err := c.doJSON(ctx, req, &pair); err != nil {
		if status := StatusOf(err); status >= 400 && status < 500 {
			return TokenPair{}, ErrRefreshExpired
		}
		return TokenPair{}, err
	}
	if pair.Access == "" {
		return TokenPair{}, ErrRefreshExpired
	}
	return pair, nil
}

// Register creates an account and returns the upstream's confirmation
// message. The account stays inactive until the email is verified.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (DetailResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.BuildURL("/auth/register/", nil), in)
	if err != nil {
		return DetailResponse{}, err
	}
	var out DetailResponse
	if err := c.doJSON(ctx, req, &out); err != nil {
		return DetailResponse{}, err
	}
	return out, nil
}

// VerifyEmail redeems an email verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) (DetailResponse, error) {
	u := c.BuildURL("/auth/verify-email/", url.Values{"token": {token}})
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return DetailResponse{}, err
	}
	var out DetailResponse
	if err := c.doJSON(ctx, req, &out); err != nil {
		return DetailResponse{}, err
	}
	return out, nil
}

// ResendVerification asks the upstream to send a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context, email string) (DetailResponse, error) {
	payload := map[string]string{"email": email}
	req, err := c.newRequest(ctx, http.MethodPost, c.BuildURL("/auth/resend-email/", nil), payload)
	if err != nil {
		return DetailResponse{}, err
	}
	var out DetailResponse
	if err := c.doJSON(ctx, req, &out); err != nil {
		return DetailResponse{}, err
	}
	return out, nil
}
