package credentials

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

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Credential, error) {

	query :=
		`SELECT google_creds_json FROM users
		 WHERE id = $1
		 `

	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&raw)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if !raw.Valid || raw.String == "" {
		return nil, common.ErrNotLinked
	}

	cred, err := models.UnmarshalCredential(raw.String)
	if err != nil {
		return nil, fmt.Errorf("corrupt credential blob: %w", err)
	}

	return cred, nil
}

func (r *PostgresRepository) Set(ctx context.Context, userID string, cred *models.Credential) error {

	raw, err := models.MarshalCredential(cred)
	if err != nil {
		return fmt.Errorf("serializing credential: %w", err)
	}

	query :=
		`UPDATE users SET google_creds_json = $1
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, raw, userID)
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

func (r *PostgresRepository) Linked(ctx context.Context, userID string) (bool, error) {

	query :=
		`SELECT google_creds_json IS NOT NULL FROM users
		 WHERE id = $1
		 `

	var linked bool
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&linked)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	return linked, nil
}
