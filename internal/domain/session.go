package domain

// FlowStatus tracks the lifecycle of an independent auth flow (login,
// registration, email verification, resend). Each flow carries its own
// status so a stalled verification never blocks or corrupts login state.
type FlowStatus string

const (
	FlowIdle      FlowStatus = "idle"
	FlowLoading   FlowStatus = "loading"
	FlowSucceeded FlowStatus = "succeeded"
	FlowFailed    FlowStatus = "failed"
)

// Credentials is the durable counterpart of a Session: the credential record
// written to the token store. Empty fields mean "absent".
type Credentials struct {
	Access    string
	Refresh   string
	Email     string
	FirstName string
	LastName  string
}

// IsZero reports whether no credential field is set.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// Merged fills c's empty fields from prev, mirroring a partial store write:
// what the new record does not mention stays as it was.
func (c Credentials) Merged(prev Credentials) Credentials {
	if c.Access == "" {
		c.Access = prev.Access
	}
	if c.Refresh == "" {
		c.Refresh = prev.Refresh
	}
	if c.Email == "" {
		c.Email = prev.Email
	}
	if c.FirstName == "" {
		c.FirstName = prev.FirstName
	}
	if c.LastName == "" {
		c.LastName = prev.LastName
	}
	return c
}

// Session is the in-memory authenticated identity of one browser context.
//
// Invariant: Authenticated is true exactly when Access is non-empty. All
// transitions preserve this; construct new sessions through them rather than
// mutating fields directly.
type Session struct {
	Access    string `json:"-"`
	Refresh   string `json:"-"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	Authenticated bool `json:"authenticated"`

	// Hydrated reports whether the startup load from the token store has
	// completed. UI gating decisions are only trustworthy once it is set.
	Hydrated bool `json:"hydrated"`
}

// WithCredentials returns the session populated from a credential record.
// A record without an access token leaves the session unauthenticated but
// still overwrites the identity fields (registration prefills email this way).
func (s Session) WithCredentials(c Credentials) Session {
	s.Access = c.Access
	s.Refresh = c.Refresh
	s.Email = c.Email
	s.FirstName = c.FirstName
	s.LastName = c.LastName
	s.Authenticated = c.Access != ""
	return s
}

// WithHydrated marks the startup load as complete.
func (s Session) WithHydrated() Session {
	s.Hydrated = true
	return s
}

// WithAccess replaces the access token in place, as happens on a successful
// refresh. An empty refresh argument keeps the current refresh token (the
// upstream only rotates it sometimes).
func (s Session) WithAccess(access, refresh string) Session {
	s.Access = access
	if refresh != "" {
		s.Refresh = refresh
	}
	s.Authenticated = access != ""
	return s
}

// Cleared returns the logged-out session. Hydration state survives: a
// logout does not make the UI re-hydrate.
func (s Session) Cleared() Session {
	return Session{Hydrated: s.Hydrated}
}

// Credentials returns the durable record corresponding to this session.
func (s Session) Credentials() Credentials {
	return Credentials{
		Access:    s.Access,
		Refresh:   s.Refresh,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
}
