package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) error {

	query :=
		`INSERT INTO notes (user_id, filename, title, filecontent, drive_file_id)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		note.UserID, note.Filename, note.Title, note.Content, note.DriveFileID).Scan(&note.ID)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID, filename, title, content, driveFileID string) error {

	// drive_file_id keeps its previous value when the sync yielded nothing;
	// the local row is never the authority for the remote file.
	query :=
		`UPDATE notes
		 SET title = $1, filecontent = $2, drive_file_id = COALESCE(NULLIF($3, ''), drive_file_id)
		 WHERE user_id = $4 AND filename = $5
		 `

	res, err := r.db.ExecContext(ctx, query, title, content, driveFileID, userID, filename)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) GetByFilename(ctx context.Context, userID, filename string) (*models.Note, error) {

	query :=
		`SELECT id, user_id, filename, COALESCE(title, ''), COALESCE(filecontent, ''),
		        COALESCE(drive_file_id, ''), pinned, created_at, updated_at
		 FROM notes
		 WHERE user_id = $1 AND filename = $2
		 `

	note := &models.Note{}
	err := r.db.QueryRowContext(ctx, query, userID, filename).Scan(
		&note.ID, &note.UserID, &note.Filename, &note.Title, &note.Content,
		&note.DriveFileID, &note.Pinned, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return note, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]*models.Note, error) {

	query :=
		`SELECT id, user_id, filename, COALESCE(title, ''), COALESCE(filecontent, ''),
		        COALESCE(drive_file_id, ''), pinned, created_at, updated_at
		 FROM notes
		 WHERE user_id = $1
		 ORDER BY pinned DESC, updated_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Note
	for rows.Next() {
		note := &models.Note{}
		if err := rows.Scan(
			&note.ID, &note.UserID, &note.Filename, &note.Title, &note.Content,
			&note.DriveFileID, &note.Pinned, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) DeleteByFilename(ctx context.Context, userID, filename string) (bool, error) {

	query :=
		`DELETE FROM notes
		 WHERE user_id = $1 AND filename = $2
		 `

	res, err := r.db.ExecContext(ctx, query, userID, filename)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected > 0, nil
}

func (r *PostgresRepository) SetPinned(ctx context.Context, userID, filename string, pinned bool) error {

	query :=
		`UPDATE notes
		 SET pinned = $1
		 WHERE user_id = $2 AND filename = $3
		 `

	res, err := r.db.ExecContext(ctx, query, pinned, userID, filename)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}
