package groups

import (
	"context"

	"github.com/dmitrijs2005/oclus/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, group *models.Group) (*models.Group, error)
	Get(ctx context.Context, id int64) (*models.Group, error)
	Update(ctx context.Context, group *models.Group) (*models.Group, error)
	Delete(ctx context.Context, id int64) error
}
