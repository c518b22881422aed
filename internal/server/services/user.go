package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/logging"
	"github.com/dmitrijs2005/oclus/internal/server/models"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages an existing user's profile. Mutations are expected to
// be called only after the caller proved the password for this request.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	log         logging.Logger
}

// UserUpdate lists the profile fields to change; nil leaves a field as is.
type UserUpdate struct {
	Email    *string
	UserName *string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		log:         log.With("module", "users"),
	}
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(ctx, "get user failed", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(ctx, "update user: load failed", err)
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.UserName != nil {
		user.UserName = *upd.UserName
	}

	user, err = repo.Update(ctx, user)
	if err != nil {
		return nil, s.mapError(ctx, "update user failed", err)
	}
	return user, nil
}

// ChangePassword stores a new password hash. Stored refresh tokens are
// cleared with it, so other sessions must log in again.
func (s *UserService) ChangePassword(ctx context.Context, id string, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return common.ErrorInvalidData
		}
		return s.mapError(ctx, "change password: hash failed", err)
	}

	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, id, hash); err != nil {
		return s.mapError(ctx, "change password failed", err)
	}
	s.log.Info(ctx, "password changed", "user_id", id)
	return nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return s.mapError(ctx, "delete user failed", err)
	}
	s.log.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// VerifyPassword reports whether password matches the stored hash of id. A
// missing user is a mismatch, not an error; storage failures are internal.
func (s *UserService) VerifyPassword(ctx context.Context, id, password string) (bool, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "password check for missing user", "user_id", id)
			return false, nil
		}
		s.log.Error(ctx, "password check: load user failed", "error", err)
		return false, common.ErrorInternal
	}
	return s.hasher.Verify(password, user.PasswordHash), nil
}

// mapError keeps taxonomy errors and collapses everything else to internal.
func (s *UserService) mapError(ctx context.Context, msg string, err error) error {
	return mapServiceError(ctx, s.log, msg, err)
}

func mapServiceError(ctx context.Context, log logging.Logger, msg string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorConflict),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorInvalidData):
		return err
	}
	log.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
