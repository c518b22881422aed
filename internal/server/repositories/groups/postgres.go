// Package groups provides the PostgreSQL-backed group repository. Groups
// reference their owner, so writes naming a missing user fail with a
// not-found error.
package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/dbx"
	"github.com/dmitrijs2005/oclus/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {
	query :=
		`INSERT INTO groups (name, owner_id)
		 VALUES ($1, $2)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, group.Name, group.OwnerID).Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return group, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Group, error) {
	query :=
		`SELECT id, name, owner_id, created_at FROM groups
		 WHERE id = $1`

	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&group.ID, &group.Name, &group.OwnerID, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

func (r *PostgresRepository) Update(ctx context.Context, group *models.Group) (*models.Group, error) {
	query :=
		`UPDATE groups SET name = $2, owner_id = $3
		 WHERE id = $1
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, group.ID, group.Name, group.OwnerID).Scan(&group.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapWriteError(err)
	}

	return group, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM groups WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
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

func mapWriteError(err error) error {
	if _, ok := dbx.IsForeignKeyViolation(err); ok {
		return fmt.Errorf("owner: %w", common.ErrorNotFound)
	}
	return fmt.Errorf("db error: %w", err)
}
