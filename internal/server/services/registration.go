package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/dbx"
	"github.com/dmitrijs2005/oclus/internal/logging"
	"github.com/dmitrijs2005/oclus/internal/server/mail"
	"github.com/dmitrijs2005/oclus/internal/server/models"
	regrepo "github.com/dmitrijs2005/oclus/internal/server/repositories/registrations"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// RegistrationPolicy bounds how long and how often a code may be tried.
type RegistrationPolicy struct {
	Window    time.Duration
	MaxTrials int
}

// RegistrationService runs sign-up: a pending request carrying a one-time
// code is created first, and the user only comes into existence when the
// code is confirmed within the window and trial budget.
type RegistrationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codes       CodeGenerator
	hasher      PasswordHasher
	mailer      Mailer
	policy      RegistrationPolicy
	log         logging.Logger
	now         func() time.Time
}

func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, codes CodeGenerator, hasher PasswordHasher,
	mailer Mailer, policy RegistrationPolicy, log logging.Logger) *RegistrationService {
	return &RegistrationService{
		db:          db,
		repomanager: m,
		codes:       codes,
		hasher:      hasher,
		mailer:      mailer,
		policy:      policy,
		log:         log.With("module", "registration"),
		now:         time.Now,
	}
}

// Initiate opens a pending registration for email and mails its code.
// Mail failures are logged; the request id is returned regardless.
func (s *RegistrationService) Initiate(ctx context.Context, email string) (int64, error) {
	exists, err := s.repomanager.Users(s.db).ExistsByEmail(ctx, email)
	if err != nil {
		s.log.Error(ctx, "registration: email lookup failed", "error", err)
		return 0, common.ErrorInternal
	}
	if exists {
		return 0, common.NewConflictError("email")
	}

	req, err := s.repomanager.Registrations(s.db).Create(ctx, &models.RegistrationRequest{
		Email:  email,
		Code:   s.codes.Generate(),
		SentOn: s.now().UTC(),
	})
	if err != nil {
		s.log.Error(ctx, "registration: create request failed", "error", err)
		return 0, common.ErrorInternal
	}

	msg := mail.Message{
		To:      email,
		Subject: "Your registration code",
		Body:    fmt.Sprintf("Your confirmation code is %s. It expires in %s.\r\n", req.Code, s.policy.Window),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn(ctx, "registration: sending code failed", "request_id", req.ID, "error", err)
	}

	return req.ID, nil
}

// Confirm checks code against pending request id and, on success, creates
// the user and drops every pending request for the same email in one
// transaction. Each attempt inside the window claims a trial before the
// code is compared, so concurrent guesses share one budget.
func (s *RegistrationService) Confirm(ctx context.Context, id int64, code, username, password string) (*models.User, error) {
	registrations := s.repomanager.Registrations(s.db)

	req, err := registrations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "registration: load request failed", "error", err)
		return nil, common.ErrorInternal
	}

	if req.Expired(s.now(), s.policy.Window) {
		s.log.Info(ctx, "registration: request expired", "request_id", id)
		return nil, common.ErrorUnauthorized
	}

	req, err = registrations.ClaimTrial(ctx, id, s.policy.MaxTrials)
	if err != nil {
		switch {
		case errors.Is(err, regrepo.ErrNoTrialsLeft):
			s.log.Info(ctx, "registration: no trials left", "request_id", id)
			return nil, common.ErrorUnauthorized
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "registration: claim trial failed", "error", err)
		return nil, common.ErrorInternal
	}

	if subtle.ConstantTimeCompare([]byte(req.Code), []byte(code)) != 1 {
		s.log.Info(ctx, "registration: code rejected", "request_id", id, "trials", req.Trials)
		return nil, common.ErrorUnauthorized
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, common.ErrorInvalidData
		}
		s.log.Error(ctx, "registration: hash failed", "error", err)
		return nil, common.ErrorInternal
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:        req.Email,
			UserName:     username,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		_, err = s.repomanager.Registrations(tx).DeleteByEmail(ctx, req.Email)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, err
		}
		s.log.Error(ctx, "registration: confirm transaction failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "registration confirmed", "user_id", user.ID)
	return user, nil
}
