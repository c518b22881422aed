// Package services holds the server's business logic: credential exchange,
// token rotation, registration confirmation, profile and group management.
// Services depend on small interfaces so the crypto, storage and delivery
// backends can be swapped in tests.
package services

import (
	"context"

	"github.com/dmitrijs2005/oclus/internal/server/auth"
	"github.com/dmitrijs2005/oclus/internal/server/mail"
)

type TokenCodec interface {
	Issue(subject string, domain auth.Domain) (string, error)
	Decode(token string, domain auth.Domain) (*auth.Claims, bool)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type CodeGenerator interface {
	Generate() string
}

// LoginLimiter throttles failed logins per email and client address.
type LoginLimiter interface {
	Check(ctx context.Context, email, ip string) error
	Fail(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email string) error
}

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}
