package httpserver

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/logging"
	"github.com/dmitrijs2005/oclus/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// requestID echoes the caller's X-Request-ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

func accessLog(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

func recovery(log logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		log.Error(c.Request.Context(), "panic in handler", "panic", rec, "request_id", c.GetString(requestIDKey))
		writeError(c, common.ErrorInternal)
	})
}

// authenticate resolves the bearer token into a weak status. A missing or
// bad token leaves the request anonymous; it never rejects.
func authenticate(tokens TokenDecoder, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			c.Next()
			return
		}

		claims, ok := tokens.Decode(token, auth.DomainAuth)
		if !ok {
			log.Debug(c.Request.Context(), "bearer token rejected, continuing anonymously")
			c.Next()
			return
		}

		setStatus(c, weakStatus(claims.Subject))
		c.Next()
	}
}

// strongAuthenticate promotes a weak status when the Password header matches
// the stored hash. A wrong password leaves the status weak; handlers decide.
func strongAuthenticate(users PasswordVerifier, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := StatusFromContext(c.Request.Context())
		password := c.GetHeader(common.PasswordHeaderName)
		if !ok || password == "" {
			c.Next()
			return
		}

		match, err := users.VerifyPassword(c.Request.Context(), status.UserID(), password)
		if err != nil {
			writeError(c, err)
			return
		}
		if !match {
			log.Info(c.Request.Context(), "password re-verification failed", "user_id", status.UserID())
			c.Next()
			return
		}

		setStatus(c, status.promote())
		c.Next()
	}
}
