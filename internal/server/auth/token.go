// Package auth issues and verifies the credentials handed to clients: HS256
// tokens in two independent signing domains and the time-based one-time
// codes used to confirm registrations.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Domain selects the signing key and lifetime of a token. A token issued in
// one domain never decodes in another.
type Domain string

const (
	DomainAuth    Domain = "auth"
	DomainRefresh Domain = "refresh"
)

var errUnknownDomain = errors.New("unknown token domain")

// Claims is the payload of every token: subject (user id), issued-at,
// expiry, a unique token id and the signing domain.
type Claims struct {
	jwt.RegisteredClaims
	Domain Domain `json:"dom"`
}

// DomainConfig holds the secret and token lifetime of one domain.
type DomainConfig struct {
	Secret   []byte
	Validity time.Duration
}

// TokenCodec signs and verifies tokens. It is safe for concurrent use.
type TokenCodec struct {
	domains map[Domain]DomainConfig
	leeway  time.Duration
	now     func() time.Time
}

type Option func(*TokenCodec)

// WithLeeway tolerates clock skew when checking expiry and issued-at.
func WithLeeway(d time.Duration) Option {
	return func(c *TokenCodec) { c.leeway = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *TokenCodec) { c.now = now }
}

func NewTokenCodec(authDomain, refreshDomain DomainConfig, opts ...Option) *TokenCodec {
	c := &TokenCodec{
		domains: map[Domain]DomainConfig{
			DomainAuth:    authDomain,
			DomainRefresh: refreshDomain,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a new token for subject in the given domain.
func (c *TokenCodec) Issue(subject string, domain Domain) (string, error) {
	cfg, ok := c.domains[domain]
	if !ok {
		return "", fmt.Errorf("%w: %q", errUnknownDomain, domain)
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Validity)),
			ID:        uuid.NewString(),
		},
		Domain: domain,
	})

	return token.SignedString(cfg.Secret)
}

// Decode verifies token under domain and returns its claims. Any failure
// (bad signature, expiry, wrong domain, missing subject, garbage input)
// yields false.
func (c *TokenCodec) Decode(token string, domain Domain) (*Claims, bool) {
	cfg, ok := c.domains[domain]
	if !ok || token == "" {
		return nil, false
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}

	if claims.Domain != domain || claims.Subject == "" {
		return nil, false
	}

	return claims, true
}

// Validity returns the lifetime of tokens in domain.
func (c *TokenCodec) Validity(domain Domain) time.Duration {
	return c.domains[domain].Validity
}
