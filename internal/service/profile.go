package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	apperrors "github.com/sakachris/ecom-frontend/pkg/errors"

	"github.com/sakachris/ecom-frontend/internal/domain"
	"github.com/sakachris/ecom-frontend/internal/session"
	"github.com/sakachris/ecom-frontend/internal/upstream"
)

// ProfileService serves the signed-in account's profile through the
// session's authenticated client, with a read-through cache in the
// credential store.
type ProfileService struct {
	logger *slog.Logger
}

// NewProfileService creates the profile service.
func NewProfileService(logger *slog.Logger) *ProfileService {
	return &ProfileService{logger: logger}
}

// Get returns the profile, serving the cached copy when present and falling
// back to the upstream. The fetched profile is cached for next time.
func (s *ProfileService) Get(ctx context.Context, m *session.Manager) (domain.Profile, error) {
	if raw, _ := m.Store().Profile(ctx, m.SID()); raw != nil {
		var p domain.Profile
		if err := json.Unmarshal(raw, &p); err == nil {
			return p, nil
		}
		// Corrupt cache entry, refetch.
	}

	p, err := m.Authed().GetProfile(ctx)
	if err != nil {
		return domain.Profile{}, s.mapError(err)
	}
	s.cache(ctx, m, p)
	return p, nil
}

// Update applies a partial profile change upstream and refreshes the cache
// and the session's identity fields.
func (s *ProfileService) Update(ctx context.Context, m *session.Manager, in domain.ProfileUpdate) (domain.Profile, error) {
	p, err := m.Authed().UpdateProfile(ctx, in)
	if err != nil {
		return domain.Profile{}, s.mapError(err)
	}
	s.cache(ctx, m, p)

	rec := domain.Credentials{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}
	if err := m.Store().Save(ctx, m.SID(), rec); err != nil {
		s.logger.WarnContext(ctx, "updating stored identity failed",
			slog.String("error", err.Error()))
	}
	return p, nil
}

// DeleteAccount removes the account upstream, then signs the session out.
func (s *ProfileService) DeleteAccount(ctx context.Context, m *session.Manager) error {
	if err := m.Authed().DeleteAccount(ctx); err != nil {
		return s.mapError(err)
	}
	m.Logout(ctx)
	return nil
}

func (s *ProfileService) cache(ctx context.Context, m *session.Manager, p domain.Profile) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := m.Store().SaveProfile(ctx, m.SID(), raw); err != nil {
		s.logger.WarnContext(ctx, "caching profile failed",
			slog.String("error", err.Error()))
	}
}

func (s *ProfileService) mapError(err error) error {
	if errors.Is(err, upstream.ErrRefreshExpired) {
		return apperrors.Unauthorized("session expired, please sign in again")
	}

	var apiErr *upstream.APIError
	if !errors.As(err, &apiErr) {
		return apperrors.ServiceUnavailable("account service unreachable")
	}
	switch {
	case apiErr.Status == 401 || apiErr.Status == 403:
		return apperrors.Unauthorized("sign in required")
	case apiErr.Status == 404:
		return apperrors.NotFound("profile", "")
	case apiErr.Status >= 500:
		return apperrors.ServiceUnavailable("account service error")
	default:
		msg := apiErr.Message()
		if msg == "" {
			msg = "invalid profile request"
		}
		return apperrors.InvalidInput(msg)
	}
}
