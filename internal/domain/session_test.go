package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_WithCredentials(t *testing.T) {
	s := Session{}.WithCredentials(Credentials{
		Access:    "acc",
		Refresh:   "ref",
		Email:     "ann@example.com",
		FirstName: "Ann",
		LastName:  "Lee",
	})

	assert.True(t, s.Authenticated)
	assert.Equal(t, "acc", s.Access)
	assert.Equal(t, "ref", s.Refresh)
	assert.Equal(t, "ann@example.com", s.Email)
}

func TestSession_WithCredentials_NoAccessStaysSignedOut(t *testing.T) {
	s := Session{}.WithCredentials(Credentials{
		Email:     "ann@example.com",
		FirstName: "Ann",
	})

	assert.False(t, s.Authenticated)
	assert.Equal(t, "ann@example.com", s.Email)
	assert.Equal(t, "Ann", s.FirstName)
}

func TestSession_WithAccess_KeepsRefreshWhenEmpty(t *testing.T) {
	s := Session{Access: "old", Refresh: "ref", Authenticated: true}

	s = s.WithAccess("new", "")

	assert.Equal(t, "new", s.Access)
	assert.Equal(t, "ref", s.Refresh)
	assert.True(t, s.Authenticated)
}

func TestSession_WithAccess_RotatesRefresh(t *testing.T) {
	s := Session{Access: "old", Refresh: "old-ref", Authenticated: true}

	s = s.WithAccess("new", "new-ref")

	assert.Equal(t, "new", s.Access)
	assert.Equal(t, "new-ref", s.Refresh)
}

func TestSession_Cleared_PreservesHydration(t *testing.T) {
	s := Session{
		Access:        "acc",
		Refresh:       "ref",
		Email:         "ann@example.com",
		Authenticated: true,
		Hydrated:      true,
	}

	cleared := s.Cleared()

	assert.False(t, cleared.Authenticated)
	assert.Empty(t, cleared.Access)
	assert.Empty(t, cleared.Refresh)
	assert.Empty(t, cleared.Email)
	assert.True(t, cleared.Hydrated)
}

func TestSession_RoundTrip(t *testing.T) {
	rec := Credentials{Access: "a", Refresh: "r", Email: "e@x.com"}
	s := Session{}.WithCredentials(rec).WithHydrated()

	assert.Equal(t, rec, s.Credentials())
}

func TestCredentials_Merged(t *testing.T) {
	tests := []struct {
		name string
		new  Credentials
		prev Credentials
		want Credentials
	}{
		{
			name: "tokens over stored identity",
			new:  Credentials{Access: "a", Refresh: "r", Email: "e@x.com"},
			prev: Credentials{Email: "e@x.com", FirstName: "Ann", LastName: "Lee"},
			want: Credentials{Access: "a", Refresh: "r", Email: "e@x.com", FirstName: "Ann", LastName: "Lee"},
		},
		{
			name: "identity keeps existing tokens",
			new:  Credentials{Email: "e@x.com", FirstName: "Ann"},
			prev: Credentials{Access: "a", Refresh: "r"},
			want: Credentials{Access: "a", Refresh: "r", Email: "e@x.com", FirstName: "Ann"},
		},
		{
			name: "empty previous",
			new:  Credentials{Access: "a"},
			prev: Credentials{},
			want: Credentials{Access: "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.new.Merged(tt.prev))
		})
	}
}
