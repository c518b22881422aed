// Package registrations stores pending sign-ups awaiting code confirmation.
package registrations

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

// Create stores req with zero trials and fills in its id.
func (r *PostgresRepository) Create(ctx context.Context, req *models.RegistrationRequest) (*models.RegistrationRequest, error) {
	query :=
		`INSERT INTO registration_requests (email, code, sent_on)
		 VALUES ($1, $2, $3)
		 RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, req.Email, req.Code, req.SentOn).Scan(&req.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	req.Trials = 0

	return req, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.RegistrationRequest, error) {
	query :=
		`SELECT id, email, code, sent_on, trials FROM registration_requests
		 WHERE id = $1`

	req := &models.RegistrationRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.Email, &req.Code, &req.SentOn, &req.Trials)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return req, nil
}

// ClaimTrial bumps trials in the same statement that checks the budget, so
// concurrent confirmations cannot take more than maxTrials between them.
func (r *PostgresRepository) ClaimTrial(ctx context.Context, id int64, maxTrials int) (*models.RegistrationRequest, error) {
	query :=
		`UPDATE registration_requests SET trials = trials + 1
		 WHERE id = $1 AND trials < $2
		 RETURNING id, email, code, sent_on, trials`

	req := &models.RegistrationRequest{}
	err := r.db.QueryRowContext(ctx, query, id, maxTrials).Scan(&req.ID, &req.Email, &req.Code, &req.SentOn, &req.Trials)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM registration_requests WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return nil, common.ErrorNotFound
	}
	return nil, ErrNoTrialsLeft
}

// DeleteByEmail removes every pending request for email and returns how
// many were removed.
func (r *PostgresRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	query := `DELETE FROM registration_requests WHERE email = $1`

	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}
