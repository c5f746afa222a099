// Package notes contains the persistence layer for note records.
package notes

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// Repository is the note store contract. Every operation is scoped to the
// owning user; filename is the note's durable identity within that scope.
type Repository interface {
	// Create inserts a new note row.
	Create(ctx context.Context, note *models.Note) error

	// Update rewrites title/content of an existing note. A non-empty
	// driveFileID replaces the stored remote id; an empty one keeps the
	// previous value. Zero affected rows yield common.ErrorNotFound.
	Update(ctx context.Context, userID, filename, title, content, driveFileID string) error

	// GetByFilename fetches one note.
	GetByFilename(ctx context.Context, userID, filename string) (*models.Note, error)

	// ListByOwner returns the user's notes, pinned first, then most
	// recently updated first.
	ListByOwner(ctx context.Context, userID string) ([]*models.Note, error)

	// DeleteByFilename removes one note, reporting whether a row existed.
	DeleteByFilename(ctx context.Context, userID, filename string) (bool, error)

	// SetPinned flips the pinned flag. Zero affected rows yield
	// common.ErrorNotFound.
	SetPinned(ctx context.Context, userID, filename string, pinned bool) error
}
