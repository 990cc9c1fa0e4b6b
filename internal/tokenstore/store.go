// Package tokenstore persists per-browser credential records. The store is
// deliberately forgiving: loads never fail the caller, and saves only touch
// the fields they were given.
package tokenstore

import (
	"context"

	"github.com/sakachris/ecom-frontend/internal/domain"
)

// Field keys of a credential record. Stable names: existing records must
// survive deployments.
const (
	FieldAccess    = "ecom_access"
	FieldRefresh   = "ecom_refresh"
	FieldEmail     = "ecom_user_email"
	FieldFirstName = "ecom_user_first_name"
	FieldLastName  = "ecom_user_last_name"
	FieldProfile   = "user_profile"
)

// Store persists credential records keyed by session ID.
type Store interface {
	// Save writes the non-empty fields of the record, leaving absent fields
	// untouched. Saving a partial record never destroys what is already
	// stored.
	Save(ctx context.Context, sid string, rec domain.Credentials) error

	// Clear removes the whole record, including any cached profile.
	Clear(ctx context.Context, sid string) error

	// Load reads the record. It fails open: a missing record, a partially
	// written record, or a backend error all yield a zero record and a nil
	// error. The caller proceeds unauthenticated rather than crashing.
	Load(ctx context.Context, sid string) (domain.Credentials, error)

	// SaveProfile caches the serialized account profile alongside the
	// credentials.
	SaveProfile(ctx context.Context, sid string, raw []byte) error

	// Profile returns the cached profile blob, or nil when absent.
	Profile(ctx context.Context, sid string) ([]byte, error)
}
