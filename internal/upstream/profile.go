package upstream

import (
	"context"
	"net/http"

	"github.com/sakachris/ecom-frontend/internal/domain"
)

const profilePath = "/auth/profile/"

// GetProfile fetches the signed-in account's profile.
func (a *AuthedClient) GetProfile(ctx context.Context) (domain.Profile, error) {
	var p domain.Profile
	err := a.GetJSON(ctx, a.api.BuildURL(profilePath, nil), &p)
	return p, err
}

// UpdateProfile applies a partial profile update and returns the result.
func (a *AuthedClient) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (domain.Profile, error) {
	var p domain.Profile
	err := a.DoJSON(ctx, http.MethodPatch, a.api.BuildURL(profilePath, nil), in, &p)
	return p, err
}

// DeleteAccount permanently deletes the signed-in account upstream.
func (a *AuthedClient) DeleteAccount(ctx context.Context) error {
	return a.DoJSON(ctx, http.MethodDelete, a.api.BuildURL(profilePath, nil), nil, nil)
}
