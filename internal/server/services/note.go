package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// NoteService owns note lifecycle: save (create or update in place), listing,
// deletion with best-effort remote cleanup, and pinning.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sync        *SyncService
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, sync *SyncService) *NoteService {
	return &NoteService{db: db, repomanager: m, sync: sync}
}

// generateFilename produces a fresh server-side name for a new note.
func generateFilename() string {
	return fmt.Sprintf("note_%d_%s.txt", time.Now().Unix(), uuid.New().String()[:8])
}

// Save persists a note. An empty filename creates a new note under a
// generated name; a non-empty filename updates that note in place. The remote
// mirror is attempted before the local write so its file id lands in the same
// row, but a mirror failure never fails the save.
func (s *NoteService) Save(ctx context.Context, userID, filename, title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", fmt.Errorf("%w: title is required", common.ErrorValidation)
	}

	repo := s.repomanager.Notes(s.db)

	if filename == "" {
		filename = generateFilename()
		remoteID := s.sync.SyncNote(ctx, userID, filename, content, "")
		note := &models.Note{
			UserID:      userID,
			Filename:    filename,
			Title:       title,
			Content:     content,
			DriveFileID: remoteID,
		}
		if err := repo.Create(ctx, note); err != nil {
			return "", "", fmt.Errorf("error creating note: %v", err)
		}
		return filename, remoteID, nil
	}

	existing, err := repo.GetByFilename(ctx, userID, filename)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", "", common.ErrorNotFound
		}
		return "", "", fmt.Errorf("error loading note: %v", err)
	}

	remoteID := s.sync.SyncNote(ctx, userID, filename, content, existing.DriveFileID)
	if err := repo.Update(ctx, userID, filename, title, content, remoteID); err != nil {
		return "", "", fmt.Errorf("error updating note: %v", err)
	}

	if remoteID == "" {
		remoteID = existing.DriveFileID
	}
	return filename, remoteID, nil
}

// History lists the user's notes, pinned first, most recently updated next.
func (s *NoteService) History(ctx context.Context, userID string) ([]*models.Note, error) {
	repo := s.repomanager.Notes(s.db)
	notes, err := repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing notes: %v", err)
	}
	return notes, nil
}

// Delete removes the named notes. Remote copies are deleted first,
// best-effort; the local rows are then removed in one transaction regardless
// of remote outcomes. Unknown filenames are skipped. Returns the number of
// local rows and remote files removed.
func (s *NoteService) Delete(ctx context.Context, userID string, filenames []string) (int, int, error) {
	repo := s.repomanager.Notes(s.db)

	var targets []*models.Note
	for _, filename := range filenames {
		note, err := repo.GetByFilename(ctx, userID, filename)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			return 0, 0, fmt.Errorf("error loading note: %v", err)
		}
		targets = append(targets, note)
	}

	if len(targets) == 0 {
		return 0, 0, nil
	}

	remoteRemoved := 0
	for _, note := range targets {
		if note.DriveFileID == "" {
			continue
		}
		if s.sync.DeleteRemote(ctx, userID, note.DriveFileID) {
			remoteRemoved++
		}
	}

	deleted := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.repomanager.Notes(tx)
		for _, note := range targets {
			ok, err := txRepo.DeleteByFilename(ctx, userID, note.Filename)
			if err != nil {
				return err
			}
			if ok {
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("error deleting notes: %v", err)
	}

	return deleted, remoteRemoved, nil
}

// SetPinned toggles the pinned flag of one note.
func (s *NoteService) SetPinned(ctx context.Context, userID, filename string, pinned bool) error {
	repo := s.repomanager.Notes(s.db)
	if err := repo.SetPinned(ctx, userID, filename, pinned); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error pinning note: %v", err)
	}
	return nil
}
