package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
)

// RemoteStore is the minimal contract for mirroring note files to an external
// storage provider.
type RemoteStore interface {
	Create(ctx context.Context, name, content string) (string, error)
	Update(ctx context.Context, fileID, content string) (string, error)
	Delete(ctx context.Context, fileID string) error
}

// RemoteFactory builds a RemoteStore for a user. It returns
// common.ErrNotLinked when the user has no linked storage and
// common.ErrReconnectRequired when the stored grant is no longer usable.
type RemoteFactory func(ctx context.Context, userID string) (RemoteStore, error)

// SyncService mirrors notes to a user's linked remote storage. The mirror is
// strictly secondary: no method here may fail a local save or delete.
type SyncService struct {
	remote RemoteFactory
	logger logging.Logger
}

func NewSyncService(remote RemoteFactory, logger logging.Logger) *SyncService {
	return &SyncService{remote: remote, logger: logger}
}

// SyncNote mirrors the note content and returns the remote file id, or ""
// when the user is not linked or the provider call failed. An existing remote
// id is updated in place; a stale id (file removed out of band) falls back to
// a fresh create.
func (s *SyncService) SyncNote(ctx context.Context, userID, filename, content, remoteID string) string {
	store, err := s.remote(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrNotLinked) {
			s.logger.Warn(ctx, "remote storage unavailable", "user_id", userID, "error", err)
		}
		return ""
	}

	if remoteID != "" {
		id, err := store.Update(ctx, remoteID, content)
		if err == nil {
			return id
		}
		s.logger.Warn(ctx, "remote update failed, recreating file", "user_id", userID, "file_id", remoteID, "error", err)
	}

	id, err := store.Create(ctx, filename, content)
	if err != nil {
		s.logger.Warn(ctx, "remote create failed", "user_id", userID, "filename", filename, "error", err)
		return ""
	}
	return id
}

// DeleteRemote removes the remote copy and reports whether it succeeded.
// Failures are logged and swallowed.
func (s *SyncService) DeleteRemote(ctx context.Context, userID, fileID string) bool {
	store, err := s.remote(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrNotLinked) {
			s.logger.Warn(ctx, "remote storage unavailable", "user_id", userID, "error", err)
		}
		return false
	}

	if err := store.Delete(ctx, fileID); err != nil {
		s.logger.Warn(ctx, "remote delete failed", "user_id", userID, "file_id", fileID, "error", err)
		return false
	}
	return true
}
