// Package credentials persists per-user OAuth credential blobs. The blob is
// stored as one opaque JSON column on the users table and is always replaced
// as a whole: access and refresh tokens must stay paired from a single
// provider response.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// Repository is the credential store contract.
type Repository interface {
	// Get returns the user's credential blob. A user that never linked
	// remote storage yields common.ErrNotLinked; an unknown user yields
	// common.ErrorNotFound.
	Get(ctx context.Context, userID string) (*models.Credential, error)

	// Set overwrites the whole blob atomically.
	Set(ctx context.Context, userID string, cred *models.Credential) error

	// Linked reports whether a blob is on file, without exposing it.
	Linked(ctx context.Context, userID string) (bool, error)
}
