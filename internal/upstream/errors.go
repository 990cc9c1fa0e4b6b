package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRefreshExpired signals that the session's refresh token was rejected.
// There is no way to recover the session; callers must sign the user out.
var ErrRefreshExpired = errors.New("refresh token expired")

// ErrSignedOut signals that the session signed out while a refresh was in
// flight, so the refreshed tokens were discarded.
var ErrSignedOut = errors.New("session signed out")

// APIError is a non-2xx response from the upstream API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	msg := e.Message()
	if msg != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("upstream returned %d", e.Status)
}

// Message extracts a human-readable message from the error body. The
// upstream sends either {"detail": "..."} or {"detail": ["...", "..."]};
// field-level validation errors come as {"field": ["msg"]} maps. Array
// details are joined with spaces. An unparseable body is returned verbatim.
func (e *APIError) Message() string {
	if e.Body == "" {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(e.Body), &payload); err != nil {
		return strings.TrimSpace(e.Body)
	}

	if raw, ok := payload["detail"]; ok {
		if msg := decodeDetail(raw); msg != "" {
			return msg
		}
	}

	// Field-keyed validation errors: flatten to "field: msg" lines.
	var parts []string
	for field, raw := range payload {
		if msg := decodeDetail(raw); msg != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	return strings.TrimSpace(e.Body)
}

func decodeDetail(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, " ")
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
