package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/logging"
	"github.com/dmitrijs2005/oclus/internal/server/models"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/repomanager"
)

// GroupService manages groups. Only a group's owner may change or delete it.
type GroupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

type GroupUpdate struct {
	Name    *string
	OwnerID *string
}

func NewGroupService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *GroupService {
	return &GroupService{db: db, repomanager: m, log: log.With("module", "groups")}
}

func (s *GroupService) Create(ctx context.Context, ownerID, name string) (*models.Group, error) {
	group, err := s.repomanager.Groups(s.db).Create(ctx, &models.Group{Name: name, OwnerID: ownerID})
	if err != nil {
		return nil, mapServiceError(ctx, s.log, "create group failed", err)
	}
	return group, nil
}

func (s *GroupService) Get(ctx context.Context, id int64) (*models.Group, error) {
	group, err := s.repomanager.Groups(s.db).Get(ctx, id)
	if err != nil {
		return nil, mapServiceError(ctx, s.log, "get group failed", err)
	}
	return group, nil
}

// Update applies upd on behalf of callerID. Handing the group to a user
// that does not exist fails with a not-found error.
func (s *GroupService) Update(ctx context.Context, callerID string, id int64, upd GroupUpdate) (*models.Group, error) {
	repo := s.repomanager.Groups(s.db)

	group, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		group.Name = *upd.Name
	}
	if upd.OwnerID != nil {
		group.OwnerID = *upd.OwnerID
	}

	group, err = repo.Update(ctx, group)
	if err != nil {
		return nil, mapServiceError(ctx, s.log, "update group failed", err)
	}
	return group, nil
}

func (s *GroupService) Delete(ctx context.Context, callerID string, id int64) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.repomanager.Groups(s.db).Delete(ctx, id); err != nil {
		return mapServiceError(ctx, s.log, "delete group failed", err)
	}
	return nil
}

func (s *GroupService) owned(ctx context.Context, callerID string, id int64) (*models.Group, error) {
	group, err := s.repomanager.Groups(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, mapServiceError(ctx, s.log, "load group failed", err)
	}
	if group.OwnerID != callerID {
		return nil, common.ErrorUnauthorized
	}
	return group, nil
}
