// Package httpserver exposes the auth, user and group services over HTTP
// with gin. Every request passes the weak-tier resolver; strong-tier routes
// additionally pass the password escalator.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/oclus/internal/logging"
	"github.com/dmitrijs2005/oclus/internal/server/auth"
	"github.com/dmitrijs2005/oclus/internal/server/models"
	"github.com/dmitrijs2005/oclus/internal/server/services"
	"github.com/gin-gonic/gin"
)

type TokenDecoder interface {
	Decode(token string, domain auth.Domain) (*auth.Claims, bool)
}

type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, userID, password string) (bool, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password, clientIP string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type RegistrationService interface {
	Initiate(ctx context.Context, email string) (int64, error)
	Confirm(ctx context.Context, id int64, code, username, password string) (*models.User, error)
}

type UserService interface {
	PasswordVerifier
	Get(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, upd services.UserUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, id string, password string) error
	Delete(ctx context.Context, id string) error
}

type GroupService interface {
	Create(ctx context.Context, ownerID, name string) (*models.Group, error)
	Get(ctx context.Context, id int64) (*models.Group, error)
	Update(ctx context.Context, callerID string, id int64, upd services.GroupUpdate) (*models.Group, error)
	Delete(ctx context.Context, callerID string, id int64) error
}

// Deps are the collaborators the routes call into.
type Deps struct {
	Tokens       TokenDecoder
	Auth         AuthService
	Registration RegistrationService
	Users        UserService
	Groups       GroupService
}

type handlers struct {
	Deps
	log logging.Logger
}

// NewRouter builds the gin engine with all middleware and routes.
func NewRouter(d Deps, log logging.Logger) *gin.Engine {
	setupValidation()

	h := &handlers{Deps: d, log: log}

	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(requestID(), accessLog(log), recovery(log), authenticate(d.Tokens, log))

	a := r.Group("/auth")
	a.POST("/register", h.register)
	a.POST("/register/confirm", h.confirm)
	a.POST("/login", h.login)
	a.POST("/refresh", h.refresh)

	r.GET("/users/me", h.me)
	r.GET("/users/:id", h.user)
	strong := r.Group("/users/me", strongAuthenticate(d.Users, log))
	strong.PUT("/update", h.updateMe)
	strong.PUT("/password", h.changePassword)
	strong.DELETE("/delete", h.deleteMe)

	g := r.Group("/groups")
	g.POST("/create", h.createGroup)
	g.GET("/:id", h.group)
	g.PUT("/:id/update", h.updateGroup)
	g.DELETE("/:id/delete", h.deleteGroup)

	return r
}

type HTTPServer struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewHTTPServer(address string, l logging.Logger, d Deps) *HTTPServer {
	l = l.With("module", "http_server")
	return &HTTPServer{address: address, handler: NewRouter(d, l), logger: l}
}

func (s *HTTPServer) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
