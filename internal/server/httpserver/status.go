package httpserver

import (
	"context"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/gin-gonic/gin"
)

type Tier int

const (
	TierWeak Tier = iota + 1
	TierStrong
)

// AuthStatus is the identity resolved for a single request. It can only be
// built weak from a token and promoted to strong by a password check; it is
// never stored beyond the request.
type AuthStatus struct {
	userID string
	tier   Tier
}

func weakStatus(userID string) AuthStatus {
	return AuthStatus{userID: userID, tier: TierWeak}
}

func (s AuthStatus) promote() AuthStatus {
	return AuthStatus{userID: s.userID, tier: TierStrong}
}

func (s AuthStatus) UserID() string { return s.userID }
func (s AuthStatus) Tier() Tier     { return s.tier }
func (s AuthStatus) Strong() bool   { return s.tier == TierStrong }

type statusKey struct{}

func withStatus(ctx context.Context, s AuthStatus) context.Context {
	return context.WithValue(ctx, statusKey{}, s)
}

// StatusFromContext returns the request's auth status, if any.
func StatusFromContext(ctx context.Context) (AuthStatus, bool) {
	s, ok := ctx.Value(statusKey{}).(AuthStatus)
	return s, ok
}

func setStatus(c *gin.Context, s AuthStatus) {
	c.Request = c.Request.WithContext(withStatus(c.Request.Context(), s))
}

// requireAuth writes 401 and returns false for anonymous requests.
func requireAuth(c *gin.Context) (AuthStatus, bool) {
	s, ok := StatusFromContext(c.Request.Context())
	if !ok {
		writeError(c, common.ErrorUnauthorized)
		return AuthStatus{}, false
	}
	return s, true
}

// requireStrongAuth is requireAuth that also insists on a password-verified
// status.
func requireStrongAuth(c *gin.Context) (AuthStatus, bool) {
	s, ok := requireAuth(c)
	if !ok {
		return AuthStatus{}, false
	}
	if !s.Strong() {
		writeError(c, common.ErrorUnauthorized)
		return AuthStatus{}, false
	}
	return s, true
}
