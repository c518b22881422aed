package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/dbx"
)

// PostgresRepository keeps the token in users.refresh_token.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Set(ctx context.Context, userID string, token string) error {
	query := `
		UPDATE users SET refresh_token = $2
		WHERE id = $1
	`
	return r.exec(ctx, query, userID, token)
}

// Lock must run inside a transaction for the row lock to mean anything.
func (r *PostgresRepository) Lock(ctx context.Context, userID string) (string, error) {
	query := `
		SELECT refresh_token FROM users
		WHERE id = $1
		FOR UPDATE
	`
	var token sql.NullString
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return token.String, nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	query := `
		UPDATE users SET refresh_token = NULL
		WHERE id = $1
	`
	return r.exec(ctx, query, userID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
