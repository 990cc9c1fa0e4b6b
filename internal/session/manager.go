// Package session owns the authenticated state of each browser context: one
// Manager per session ID, holding the in-memory state machine and the durable
// credential record behind it.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sakachris/ecom-frontend/internal/domain"
	"github.com/sakachris/ecom-frontend/internal/tokenstore"
	"github.com/sakachris/ecom-frontend/internal/upstream"
)

// FlowState is the observable state of one auth flow. Message carries the
// upstream's confirmation text on success, Error the normalized failure.
type FlowState struct {
	Status  domain.FlowStatus `json:"status"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Snapshot is the session state as reported to the browser. Tokens never
// appear in it.
type Snapshot struct {
	domain.Session
	Login    FlowState `json:"login"`
	Register FlowState `json:"register"`
	Verify   FlowState `json:"verify"`
	Resend   FlowState `json:"resend"`
}

// Manager drives the auth lifecycle of one browser session. All state
// transitions happen under its lock; persistence follows the in-memory
// transition, never the other way around.
type Manager struct {
	sid    string
	store  tokenstore.Store
	api    *upstream.Client
	authed *upstream.AuthedClient
	logger *slog.Logger

	hydrate sync.Once

	mu       sync.RWMutex
	state    domain.Session
	login    FlowState
	register FlowState
	verify   FlowState
	resend   FlowState

	// gen increments on every logout. Flows capture it when they start and
	// discard their result if it moved, so a slow login cannot resurrect a
	// session the user already signed out of.
	gen uint64
}

// NewManager creates the manager for one session ID. The manager is its own
// token source: the authenticated client it owns reads and writes tokens
// through it.
func NewManager(sid string, store tokenstore.Store, api *upstream.Client, logger *slog.Logger) *Manager {
	m := &Manager{
		sid:      sid,
		store:    store,
		api:      api,
		logger:   logger.With(slog.String("session_id", sid)),
		login:    FlowState{Status: domain.FlowIdle},
		register: FlowState{Status: domain.FlowIdle},
		verify:   FlowState{Status: domain.FlowIdle},
		resend:   FlowState{Status: domain.FlowIdle},
	}
	m.authed = upstream.NewAuthedClient(api, m, m.logger)
	return m
}

// SID returns the session ID this manager serves.
func (m *Manager) SID() string { return m.sid }

// Authed returns the authenticated upstream client bound to this session.
func (m *Manager) Authed() *upstream.AuthedClient { return m.authed }

// Store exposes the credential store for profile caching.
func (m *Manager) Store() tokenstore.Store { return m.store }

// Hydrate loads the durable credential record into memory. It runs at most
// once per manager; later calls are no-ops, so every request handler can call
// it unconditionally. A store failure still marks the session hydrated: the
// user browses signed out instead of getting an error page.
func (m *Manager) Hydrate(ctx context.Context) {
	m.hydrate.Do(func() {
		rec, err := m.store.Load(ctx, m.sid)
		if err != nil {
			m.logger.WarnContext(ctx, "hydration load failed",
				slog.String("error", err.Error()))
			rec = domain.Credentials{}
		}

		m.mu.Lock()
		m.state = m.state.WithCredentials(rec).WithHydrated()
		m.mu.Unlock()

		if rec.Access != "" {
			m.logger.DebugContext(ctx, "session hydrated authenticated")
		}
	})
}

// Snapshot returns the current state for presentation.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Session:  m.state,
		Login:    m.login,
		Register: m.register,
		Verify:   m.verify,
		Resend:   m.resend,
	}
}

// Login exchanges credentials upstream and, on success, installs the token
// pair in memory and in the store. The flow status moves loading, then
// succeeded or failed; other flows are untouched.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	gen := m.beginFlow(&m.login)

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		classified := classifyAuthError(err)
		m.failFlow(&m.login, classified)
		return classified
	}

	rec := domain.Credentials{
		Access:    resp.Access,
		Refresh:   resp.Refresh,
		Email:     email,
		FirstName: resp.FirstName,
		LastName:  resp.LastName,
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "discarding login result, session was signed out")
		return nil
	}
	m.state = m.state.WithCredentials(rec.Merged(m.state.Credentials()))
	m.login = FlowState{Status: domain.FlowSucceeded}
	m.mu.Unlock()

	if err := m.store.Save(ctx, m.sid, rec); err != nil {
		m.logger.WarnContext(ctx, "persisting login credentials failed",
			slog.String("error", err.Error()))
	}
	return nil
}

// Register creates an account upstream. Success leaves the session signed
// out but records the identity fields, so the sign-in form is prefilled and
// resend-verification knows the address.
func (m *Manager) Register(ctx context.Context, in upstream.RegisterRequest) error {
	gen := m.beginFlow(&m.register)

	resp, err := m.api.Register(ctx, in)
	if err != nil {
		classified := classifyAuthError(err)
		m.failFlow(&m.register, classified)
		return classified
	}

	rec := domain.Credentials{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return nil
	}
	m.state = m.state.WithCredentials(rec.Merged(m.state.Credentials()))
	m.register = FlowState{Status: domain.FlowSucceeded, Message: resp.Detail}
	m.mu.Unlock()

	if err := m.store.Save(ctx, m.sid, rec); err != nil {
		m.logger.WarnContext(ctx, "persisting registration identity failed",
			slog.String("error", err.Error()))
	}
	return nil
}

// VerifyEmail redeems a verification token. It affects only its own flow
// status; the session's tokens are untouched.
func (m *Manager) VerifyEmail(ctx context.Context, token string) error {
	m.beginFlow(&m.verify)

	resp, err := m.api.VerifyEmail(ctx, token)
	if err != nil {
		classified := classifyAuthError(err)
		m.failFlow(&m.verify, classified)
		return classified
	}

	m.mu.Lock()
	m.verify = FlowState{Status: domain.FlowSucceeded, Message: resp.Detail}
	m.mu.Unlock()
	return nil
}

// ResendVerification requests a new verification email. An empty address
// falls back to the one recorded at registration.
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	m.beginFlow(&m.resend)

	if email == "" {
		m.mu.RLock()
		email = m.state.Email
		m.mu.RUnlock()
	}
	if email == "" {
		err := classifyAuthError(&upstream.APIError{Status: 400, Body: `{"detail":"email is required"}`})
		m.failFlow(&m.resend, err)
		return err
	}

	resp, err := m.api.ResendVerification(ctx, email)
	if err != nil {
		classified := classifyAuthError(err)
		m.failFlow(&m.resend, classified)
		return classified
	}

	m.mu.Lock()
	m.resend = FlowState{Status: domain.FlowSucceeded, Message: resp.Detail}
	m.mu.Unlock()
	return nil
}

// Logout clears the session in memory and in the store. It never fails from
// the caller's point of view; a store error is logged and the in-memory
// session is cleared regardless.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	m.state = m.state.Cleared()
	m.login = FlowState{Status: domain.FlowIdle}
	m.register = FlowState{Status: domain.FlowIdle}
	m.verify = FlowState{Status: domain.FlowIdle}
	m.resend = FlowState{Status: domain.FlowIdle}
	m.mu.Unlock()

	if err := m.store.Clear(ctx, m.sid); err != nil {
		m.logger.WarnContext(ctx, "clearing stored credentials failed",
			slog.String("error", err.Error()))
	}
}

// AccessToken implements upstream.TokenSource.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Access
}

// RefreshToken implements upstream.TokenSource. The returned generation ties
// the eventual SetTokens back to the session state the refresh started from.
func (m *Manager) RefreshToken() (string, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Refresh, m.gen
}

// SetTokens implements upstream.TokenSource. It installs a refreshed pair in
// memory first, then persists it. A pair from a generation the session has
// already left is discarded, so a refresh that completes after logout cannot
// re-authenticate the signed-out user.
func (m *Manager) SetTokens(ctx context.Context, access, refresh string, gen uint64) error {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "discarding refreshed tokens, session was signed out")
		return upstream.ErrSignedOut
	}
	m.state = m.state.WithAccess(access, refresh)
	rec := domain.Credentials{Access: access, Refresh: refresh}
	m.mu.Unlock()

	return m.store.Save(ctx, m.sid, rec)
}

// ForceLogout implements upstream.TokenSource. It runs when a refresh proves
// the session unrecoverable.
func (m *Manager) ForceLogout(ctx context.Context) {
	m.logger.InfoContext(ctx, "session expired, forcing sign-out")
	m.Logout(ctx)
}

// beginFlow marks a flow loading and returns the generation it started in.
func (m *Manager) beginFlow(f *FlowState) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	*f = FlowState{Status: domain.FlowLoading}
	return m.gen
}

func (m *Manager) failFlow(f *FlowState, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*f = FlowState{Status: domain.FlowFailed, Error: err.Error()}
}
