package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakachris/ecom-frontend/pkg/httpclient"

	"github.com/sakachris/ecom-frontend/internal/domain"
	"github.com/sakachris/ecom-frontend/internal/tokenstore"
	"github.com/sakachris/ecom-frontend/internal/upstream"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// countingStore counts Load calls on top of the in-memory store.
type countingStore struct {
	tokenstore.Store
	loads atomic.Int32
}

func (s *countingStore) Load(ctx context.Context, sid string) (domain.Credentials, error) {
	s.loads.Add(1)
	return s.Store.Load(ctx, sid)
}

func newUpstreamClient(t *testing.T, baseURL string) *upstream.Client {
	t.Helper()
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 5 * time.Second
	cfg.MaxRetries = 0
	return upstream.NewClient(baseURL, httpclient.New(cfg), newTestLogger())
}

// authServer fakes the upstream auth endpoints.
func authServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		switch {
		case req["email"] == "unverified@example.com":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Account is not verified."}`))
		case req["password"] != "secret123":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
		default:
			w.Write([]byte(`{"access":"acc-1","refresh":"ref-1"}`))
		}
	})
	mux.HandleFunc("/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "confirm_password",
			"password confirmation is a client-side check only")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"detail":"Verification email sent."}`))
	})
	mux.HandleFunc("/auth/verify-email/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "good-token" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"Invalid or expired token."}`))
			return
		}
		w.Write([]byte(`{"detail":"Email verified."}`))
	})
	mux.HandleFunc("/auth/resend-email/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["email"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"email is required"}`))
			return
		}
		w.Write([]byte(`{"detail":"sent"}`))
	})
	return httptest.NewServer(mux)
}

func TestManager_HydrateRunsOnce(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: tokenstore.NewMemoryStore()}
	require.NoError(t, store.Save(ctx, "sid", domain.Credentials{
		Access: "acc", Refresh: "ref", Email: "ann@example.com",
	}))

	m := NewManager("sid", store, newUpstreamClient(t, "http://unused"), newTestLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Hydrate(ctx)
		}()
	}
	wg.Wait()
	m.Hydrate(ctx)

	assert.Equal(t, int32(1), store.loads.Load())

	snap := m.Snapshot()
	assert.True(t, snap.Hydrated)
	assert.True(t, snap.Authenticated)
	assert.Equal(t, "ann@example.com", snap.Email)
}

func TestManager_HydrateEmptyStore(t *testing.T) {
	m := NewManager("sid", tokenstore.NewMemoryStore(), newUpstreamClient(t, "http://unused"), newTestLogger())

	m.Hydrate(context.Background())

	snap := m.Snapshot()
	assert.True(t, snap.Hydrated)
	assert.False(t, snap.Authenticated)
	assert.Equal(t, domain.FlowIdle, snap.Login.Status)
}

func TestManager_LoginSuccess(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	m := NewManager("sid", store, newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	require.NoError(t, m.Login(ctx, "ann@example.com", "secret123"))

	snap := m.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, domain.FlowSucceeded, snap.Login.Status)
	assert.Equal(t, "ann@example.com", snap.Email)

	rec, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", rec.Access)
	assert.Equal(t, "ref-1", rec.Refresh)
	assert.Equal(t, "ann@example.com", rec.Email)
}

func TestManager_LoginAppliesNameFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access":"T1","refresh":"R1","first_name":"Ann"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	m := NewManager("sid", store, newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	require.NoError(t, m.Login(ctx, "a@b.com", "secret"))

	snap := m.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, "a@b.com", snap.Email)
	assert.Equal(t, "Ann", snap.FirstName)

	rec, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{
		Access: "T1", Refresh: "R1", Email: "a@b.com", FirstName: "Ann",
	}, rec)
}

func TestManager_LoginBadCredentials(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	ctx := context.Background()
	m := NewManager("sid", tokenstore.NewMemoryStore(), newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	err := m.Login(ctx, "ann@example.com", "wrong")

	require.Error(t, err)
	snap := m.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Equal(t, domain.FlowFailed, snap.Login.Status)
	assert.NotEmpty(t, snap.Login.Error)
}

func TestManager_LoginUnverifiedAccount(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	ctx := context.Background()
	m := NewManager("sid", tokenstore.NewMemoryStore(), newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	err := m.Login(ctx, "unverified@example.com", "secret123")

	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Equal(t, domain.FlowFailed, m.Snapshot().Login.Status)
}

func TestManager_RegisterThenLoginKeepsIdentity(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	m := NewManager("sid", store, newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	require.NoError(t, m.Register(ctx, upstream.RegisterRequest{
		Email:     "ann@example.com",
		FirstName: "Ann",
		LastName:  "Lee",
		Password:  "secret123",
	}))

	snap := m.Snapshot()
	assert.False(t, snap.Authenticated, "registration alone must not sign in")
	assert.Equal(t, domain.FlowSucceeded, snap.Register.Status)
	assert.Equal(t, "Ann", snap.FirstName)

	require.NoError(t, m.Login(ctx, "ann@example.com", "secret123"))

	// The token-only write of login must not erase the registered identity.
	rec, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", rec.Access)
	assert.Equal(t, "Ann", rec.FirstName)
	assert.Equal(t, "Lee", rec.LastName)
}

func TestManager_VerifyFlowIsIndependent(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	ctx := context.Background()
	m := NewManager("sid", tokenstore.NewMemoryStore(), newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	require.NoError(t, m.Login(ctx, "ann@example.com", "secret123"))
	require.Error(t, m.VerifyEmail(ctx, "bad-token"))

	snap := m.Snapshot()
	assert.Equal(t, domain.FlowFailed, snap.Verify.Status)
	assert.Equal(t, domain.FlowSucceeded, snap.Login.Status, "verify failure must not touch login")
	assert.True(t, snap.Authenticated)
}

func TestManager_ResendFallsBackToStoredEmail(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	ctx := context.Background()
	m := NewManager("sid", tokenstore.NewMemoryStore(), newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	require.NoError(t, m.Register(ctx, upstream.RegisterRequest{
		Email: "ann@example.com", FirstName: "Ann", LastName: "Lee",
		Password: "secret123",
	}))

	require.NoError(t, m.ResendVerification(ctx, ""))
	assert.Equal(t, domain.FlowSucceeded, m.Snapshot().Resend.Status)
}

func TestManager_ResendWithNoEmailFails(t *testing.T) {
	ctx := context.Background()
	m := NewManager("sid", tokenstore.NewMemoryStore(), newUpstreamClient(t, "http://unused"), newTestLogger())
	m.Hydrate(ctx)

	err := m.ResendVerification(ctx, "")

	require.Error(t, err)
	assert.Equal(t, domain.FlowFailed, m.Snapshot().Resend.Status)
}

func TestManager_LoginFinishingAfterLogoutIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access":"late-acc","refresh":"late-ref"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	m := NewManager("sid", store, newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	done := make(chan error, 1)
	go func() {
		done <- m.Login(ctx, "ann@example.com", "secret123")
	}()

	<-started
	m.Logout(ctx)
	close(release)
	require.NoError(t, <-done)

	// The login completed upstream, but the user signed out first.
	snap := m.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Empty(t, m.AccessToken())

	rec, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, rec.IsZero())
}

func TestManager_RefreshFinishingAfterLogoutIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access":"fresh"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "sid", domain.Credentials{Access: "stale", Refresh: "ref"}))

	m := NewManager("sid", store, newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := m.Authed().GetProfile(ctx)
		done <- err
	}()

	<-started
	m.Logout(ctx)
	close(release)
	require.Error(t, <-done)

	// The refresh completed upstream, but the user signed out first.
	snap := m.Snapshot()
	assert.False(t, snap.Authenticated, "logout must stick")
	assert.Empty(t, m.AccessToken())

	rec, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, rec.IsZero(), "the cleared store must stay cleared")
}

func TestManager_LogoutRoundTrip(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	m := NewManager("sid", store, newUpstreamClient(t, srv.URL), newTestLogger())
	m.Hydrate(ctx)

	require.NoError(t, m.Login(ctx, "ann@example.com", "secret123"))
	require.NoError(t, store.SaveProfile(ctx, "sid", []byte(`{"email":"ann@example.com"}`)))

	m.Logout(ctx)

	snap := m.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.True(t, snap.Hydrated)
	assert.Equal(t, domain.FlowIdle, snap.Login.Status)

	rec, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, rec.IsZero())

	raw, err := store.Profile(ctx, "sid")
	require.NoError(t, err)
	assert.Nil(t, raw, "logout must drop the cached profile")
}

func TestManager_SetTokensPersists(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	m := NewManager("sid", store, newUpstreamClient(t, "http://unused"), newTestLogger())
	m.Hydrate(ctx)

	_, gen := m.RefreshToken()
	require.NoError(t, m.SetTokens(ctx, "new-acc", "new-ref", gen))

	assert.Equal(t, "new-acc", m.AccessToken())
	refresh, _ := m.RefreshToken()
	assert.Equal(t, "new-ref", refresh)

	rec, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "new-acc", rec.Access)
}

func TestManager_SetTokensFromOldGenerationIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	m := NewManager("sid", store, newUpstreamClient(t, "http://unused"), newTestLogger())
	m.Hydrate(ctx)

	_, gen := m.RefreshToken()
	m.Logout(ctx)

	err := m.SetTokens(ctx, "late-acc", "late-ref", gen)

	assert.ErrorIs(t, err, upstream.ErrSignedOut)
	assert.False(t, m.Snapshot().Authenticated)
	assert.Empty(t, m.AccessToken())

	rec, loadErr := store.Load(ctx, "sid")
	require.NoError(t, loadErr)
	assert.True(t, rec.IsZero(), "discarded tokens must not reach the store")
}

func TestManager_ForceLogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "sid", domain.Credentials{Access: "acc", Refresh: "ref"}))

	m := NewManager("sid", store, newUpstreamClient(t, "http://unused"), newTestLogger())
	m.Hydrate(ctx)
	require.True(t, m.Snapshot().Authenticated)

	m.ForceLogout(ctx)

	assert.False(t, m.Snapshot().Authenticated)
	assert.Empty(t, m.AccessToken())
}

func TestRegistry_ReturnsSameManager(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	r := NewRegistry(tokenstore.NewMemoryStore(), newUpstreamClient(t, srv.URL), newTestLogger())

	m1 := r.Get("sid-1")
	m2 := r.Get("sid-1")
	other := r.Get("sid-2")

	assert.Same(t, m1, m2)
	assert.NotSame(t, m1, other)
	assert.Equal(t, 2, r.Len())

	r.Evict("sid-1")
	assert.Equal(t, 1, r.Len())
	assert.NotSame(t, m1, r.Get("sid-1"))
}
