package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/notes"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/users"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// --- in-memory repositories ---

type fakeUsersRepo struct {
	byEmail map[string]*models.User
	nextID  int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}, nextID: 1}
}

func (r *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	user.ID = fmt.Sprintf("%d", r.nextID)
	r.nextID++
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeNotesRepo struct {
	byFilename map[string]*models.Note
	nextID     int
}

func newFakeNotesRepo() *fakeNotesRepo {
	return &fakeNotesRepo{byFilename: map[string]*models.Note{}, nextID: 1}
}

func (r *fakeNotesRepo) key(userID, filename string) string {
	return userID + "/" + filename
}

func (r *fakeNotesRepo) Create(ctx context.Context, note *models.Note) error {
	note.ID = fmt.Sprintf("%d", r.nextID)
	r.nextID++
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	r.byFilename[r.key(note.UserID, note.Filename)] = note
	return nil
}

func (r *fakeNotesRepo) Update(ctx context.Context, userID, filename, title, content, driveFileID string) error {
	note, ok := r.byFilename[r.key(userID, filename)]
	if !ok {
		return common.ErrorNotFound
	}
	note.Title = title
	note.Content = content
	if driveFileID != "" {
		note.DriveFileID = driveFileID
	}
	note.UpdatedAt = time.Now()
	return nil
}

func (r *fakeNotesRepo) GetByFilename(ctx context.Context, userID, filename string) (*models.Note, error) {
	note, ok := r.byFilename[r.key(userID, filename)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *note
	return &copied, nil
}

func (r *fakeNotesRepo) ListByOwner(ctx context.Context, userID string) ([]*models.Note, error) {
	var result []*models.Note
	for _, n := range r.byFilename {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (r *fakeNotesRepo) DeleteByFilename(ctx context.Context, userID, filename string) (bool, error) {
	k := r.key(userID, filename)
	if _, ok := r.byFilename[k]; !ok {
		return false, nil
	}
	delete(r.byFilename, k)
	return true, nil
}

func (r *fakeNotesRepo) SetPinned(ctx context.Context, userID, filename string, pinned bool) error {
	note, ok := r.byFilename[r.key(userID, filename)]
	if !ok {
		return common.ErrorNotFound
	}
	note.Pinned = pinned
	return nil
}

type fakeCredsRepo struct {
	byUser map[string]*models.Credential
}

func newFakeCredsRepo() *fakeCredsRepo {
	return &fakeCredsRepo{byUser: map[string]*models.Credential{}}
}

func (r *fakeCredsRepo) Get(ctx context.Context, userID string) (*models.Credential, error) {
	cred, ok := r.byUser[userID]
	if !ok {
		return nil, common.ErrNotLinked
	}
	return cred, nil
}

func (r *fakeCredsRepo) Set(ctx context.Context, userID string, cred *models.Credential) error {
	r.byUser[userID] = cred
	return nil
}

func (r *fakeCredsRepo) Linked(ctx context.Context, userID string) (bool, error) {
	_, ok := r.byUser[userID]
	return ok, nil
}

// fakeRepoManager hands out the same in-memory repositories regardless of the
// DBTX, so transactional and plain calls observe one store.
type fakeRepoManager struct {
	users *fakeUsersRepo
	notes *fakeNotesRepo
	creds *fakeCredsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users: newFakeUsersRepo(),
		notes: newFakeNotesRepo(),
		creds: newFakeCredsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository { return m.users }

func (m *fakeRepoManager) Notes(db dbx.DBTX) notes.Repository { return m.notes }

func (m *fakeRepoManager) Credentials(db dbx.DBTX) credentials.Repository { return m.creds }

// --- remote storage stub ---

// countingRemote records every remote call so tests can assert the
// create-vs-update split and delete outcomes.
type countingRemote struct {
	creates int
	updates int
	deletes int

	failUpdate bool
	failDelete bool

	nextID int
}

func (r *countingRemote) Create(ctx context.Context, name, content string) (string, error) {
	r.creates++
	r.nextID++
	return fmt.Sprintf("remote-%d", r.nextID), nil
}

func (r *countingRemote) Update(ctx context.Context, fileID, content string) (string, error) {
	r.updates++
	if r.failUpdate {
		return "", errors.New("remote update failed")
	}
	return fileID, nil
}

func (r *countingRemote) Delete(ctx context.Context, fileID string) error {
	r.deletes++
	if r.failDelete {
		return errors.New("remote delete failed")
	}
	return nil
}

func factoryFor(store RemoteStore, err error) RemoteFactory {
	return func(ctx context.Context, userID string) (RemoteStore, error) {
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
