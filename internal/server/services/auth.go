package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/dbx"
	"github.com/dmitrijs2005/oclus/internal/logging"
	"github.com/dmitrijs2005/oclus/internal/server/auth"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived auth token and a long-lived refresh token.
type TokenPair struct {
	AuthToken    string
	RefreshToken string
}

// AuthService exchanges credentials and refresh tokens for token pairs.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenCodec
	hasher      PasswordHasher
	limiter     LoginLimiter
	log         logging.Logger
}

type AuthOption func(*AuthService)

// WithLoginLimiter enables login throttling.
func WithLoginLimiter(l LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenCodec, hasher PasswordHasher, log logging.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      hasher,
		log:         log.With("module", "auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssuePair mints a token pair for userID and stores the refresh token as
// the user's only valid one. The pair is returned only after the store
// commits.
func (s *AuthService) IssuePair(ctx context.Context, userID string) (*TokenPair, error) {
	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		pair, err = s.issuePair(ctx, userID, tx)
		return err
	})
	if err != nil {
		return nil, s.internal(ctx, "issue pair failed", err)
	}
	return pair, nil
}

// Login verifies email and password and issues a pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (*TokenPair, error) {
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, email, clientIP); err != nil {
			if errors.Is(err, common.ErrorRateLimited) {
				s.log.Info(ctx, "login throttled", "email", email, "ip", clientIP)
				return nil, err
			}
			s.log.Warn(ctx, "login limiter unavailable", "error", err)
		}
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.recordFailure(ctx, email, clientIP)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.internal(ctx, "login: user lookup failed", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordFailure(ctx, email, clientIP)
		return nil, common.ErrorUnauthorized
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn(ctx, "login limiter unavailable", "error", err)
		}
	}

	return s.IssuePair(ctx, user.ID)
}

// Refresh exchanges a refresh token for a new pair. The token must decode in
// the refresh domain and equal the one stored for its subject; the stored
// token is replaced in the same transaction, under a row lock, so a token
// can be redeemed at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, ok := s.tokens.Decode(refreshToken, auth.DomainRefresh)
	if !ok {
		s.log.Info(ctx, "refresh rejected: token does not decode")
		return nil, common.ErrorUnauthorized
	}
	userID := claims.Subject

	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		stored, err := s.repomanager.RefreshTokens(tx).Lock(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.log.Warn(ctx, "valid refresh token provided but user not found", "user_id", userID)
				return common.ErrorUnauthorized
			}
			return err
		}

		if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
			s.log.Info(ctx, "refresh rejected: token is not the current one", "user_id", userID)
			return common.ErrorUnauthorized
		}

		pair, err = s.issuePair(ctx, userID, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, err
		}
		return nil, s.internal(ctx, "refresh failed", err)
	}

	s.log.Info(ctx, "refresh token rotated", "user_id", userID)
	return pair, nil
}

// --- helpers below ---

func (s *AuthService) issuePair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	authToken, err := s.tokens.Issue(userID, auth.DomainAuth)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.Issue(userID, auth.DomainRefresh)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.RefreshTokens(tx).Set(ctx, userID, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	return &TokenPair{AuthToken: authToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email, clientIP string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(ctx, email, clientIP); err != nil {
		s.log.Warn(ctx, "login limiter unavailable", "error", err)
	}
}

func (s *AuthService) internal(ctx context.Context, msg string, err error) error {
	if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrorInternal) {
		return err
	}
	s.log.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
