package upstream

import (
	"context"
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
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeTokenSource is an in-memory TokenSource for wrapper tests.
type fakeTokenSource struct {
	mu        sync.Mutex
	access    string
	refresh   string
	gen       uint64
	forcedOut bool
	setCalls  int
}

func (f *fakeTokenSource) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeTokenSource) RefreshToken() (string, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh, f.gen
}

func (f *fakeTokenSource) SetTokens(_ context.Context, access, refresh string, gen uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return ErrSignedOut
	}
	f.access = access
	if refresh != "" {
		f.refresh = refresh
	}
	f.setCalls++
	return nil
}

func (f *fakeTokenSource) ForceLogout(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = ""
	f.refresh = ""
	f.gen++
	f.forcedOut = true
}

func newTestAuthed(t *testing.T, baseURL string, ts TokenSource) *AuthedClient {
	t.Helper()
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 5 * time.Second
	cfg.MaxRetries = 0
	api := NewClient(baseURL, httpclient.New(cfg), newTestLogger())
	return NewAuthedClient(api, ts, newTestLogger())
}

func TestAuthedClient_RefreshAndRetryOn401(t *testing.T) {
	var profileCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		profileCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"ann@example.com","first_name":"Ann","last_name":"Lee"}`))
	})
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access":"fresh"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts := &fakeTokenSource{access: "stale", refresh: "ref"}
	authed := newTestAuthed(t, srv.URL, ts)

	p, err := authed.GetProfile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", p.Email)
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(2), profileCalls.Load())
	assert.Equal(t, "fresh", ts.AccessToken())
	refresh, _ := ts.RefreshToken()
	assert.Equal(t, "ref", refresh)
}

func TestAuthedClient_ConcurrentRequestsShareOneRefresh(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"ann@example.com"}`))
	})
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(50 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access":"fresh"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts := &fakeTokenSource{access: "stale", refresh: "ref"}
	authed := newTestAuthed(t, srv.URL, ts)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = authed.GetProfile(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestAuthedClient_RefreshRejectionForcesLogout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts := &fakeTokenSource{access: "stale", refresh: "dead"}
	authed := newTestAuthed(t, srv.URL, ts)

	_, err := authed.GetProfile(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshExpired)
	assert.True(t, ts.forcedOut)
	assert.Empty(t, ts.AccessToken())
}

func TestAuthedClient_MissingRefreshTokenForcesLogout(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts := &fakeTokenSource{access: "stale"}
	authed := newTestAuthed(t, srv.URL, ts)

	_, err := authed.GetProfile(context.Background())

	assert.ErrorIs(t, err, ErrRefreshExpired)
	assert.True(t, ts.forcedOut)
	assert.Equal(t, int32(0), refreshCalls.Load())
}

func TestAuthedClient_SecondUnauthorizedSurfacesAPIError(t *testing.T) {
	var profileCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		profileCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"still unauthorized"}`))
	})
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access":"fresh"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts := &fakeTokenSource{access: "stale", refresh: "ref"}
	authed := newTestAuthed(t, srv.URL, ts)

	_, err := authed.GetProfile(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.NotErrorIs(t, err, ErrRefreshExpired)
	assert.Equal(t, int32(1), refreshCalls.Load(), "the retry must not refresh again")
	assert.Equal(t, int32(2), profileCalls.Load())
	assert.False(t, ts.forcedOut)
}

func TestAuthedClient_NonAuthFailuresPassThrough(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"forbidden"}`))
	})
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts := &fakeTokenSource{access: "acc", refresh: "ref"}
	authed := newTestAuthed(t, srv.URL, ts)

	_, err := authed.GetProfile(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, int32(0), refreshCalls.Load())
	assert.False(t, ts.forcedOut)
}
