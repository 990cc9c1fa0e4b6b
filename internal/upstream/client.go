// Package upstream is the typed client for the commerce platform's REST API.
// It owns request construction, response decoding, and the authenticated
// request wrapper that keeps access tokens fresh.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// HTTPDoer executes a single HTTP request. *httpclient.Client and
// *httpclient.CircuitBreakerClient both satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// maxErrorBody caps how much of an error response we retain for messages.
const maxErrorBody = 4 << 10

// Client talks to the upstream API without authentication. Authenticated
// traffic goes through AuthedClient, which wraps this.
type Client struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

// NewClient creates an upstream client. baseURL should not have a trailing
// slash.
func NewClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
	}
}

// BuildURL joins path onto the base URL and encodes query, skipping empty
// values.
func (c *Client) BuildURL(path string, query url.Values) string {
	u := c.baseURL + path
	if query == nil {
		return u
	}
	clean := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				clean.Add(k, v)
			}
		}
	}
	if enc := clean.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON executes the request and decodes a 2xx body into out (which may be
// nil). Non-2xx responses become an *APIError carrying the body.
func (c *Client) doJSON(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// getJSON is the common unauthenticated GET path.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, req, out)
}
