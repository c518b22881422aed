package registrations

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/oclus/internal/server/models"
)

// ErrNoTrialsLeft is returned by ClaimTrial once the request has used its
// whole budget.
var ErrNoTrialsLeft = errors.New("no trials left")

type Repository interface {
	Create(ctx context.Context, req *models.RegistrationRequest) (*models.RegistrationRequest, error)
	Get(ctx context.Context, id int64) (*models.RegistrationRequest, error)

	// ClaimTrial atomically takes one trial from request id if fewer than
	// maxTrials are used, and returns the request as it is after the claim.
	ClaimTrial(ctx context.Context, id int64, maxTrials int) (*models.RegistrationRequest, error)

	DeleteByEmail(ctx context.Context, email string) (int64, error)
}
