// Package server assembles the oclus server from its configuration: the
// PostgreSQL pool and migrations, the token codec, the registration mailer,
// optional Redis login throttling, the HTTP API and the gRPC health endpoint.
// Run blocks until SIGINT/SIGTERM and then shuts everything down.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/oclus/internal/cryptox"
	"github.com/dmitrijs2005/oclus/internal/logging"
	"github.com/dmitrijs2005/oclus/internal/server/auth"
	"github.com/dmitrijs2005/oclus/internal/server/config"
	"github.com/dmitrijs2005/oclus/internal/server/httpserver"
	"github.com/dmitrijs2005/oclus/internal/server/mail"
	"github.com/dmitrijs2005/oclus/internal/server/ratelimit"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/oclus/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/oclus/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	http   *httpserver.HTTPServer
	grpc   *gs.GRPCServer
}

var (
	openDB         = sql.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	db, err := openDB("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	mailer, err := newMailer(ctx, c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	codec := auth.NewTokenCodec(
		auth.DomainConfig{Secret: []byte(c.AuthSecretKey), Validity: c.AuthTokenValidityDuration},
		auth.DomainConfig{Secret: []byte(c.RefreshSecretKey), Validity: c.RefreshTokenValidityDuration},
		auth.WithLeeway(c.TokenLeeway),
	)
	hasher := cryptox.NewPasswordHasher(c.BcryptCost)

	var authOpts []services.AuthOption
	rdb := newRedis(c)
	if rdb != nil {
		limiter := ratelimit.New(rdb, ratelimit.Config{MaxAttempts: c.LoginMaxAttempts, Cooldown: c.LoginCooldown})
		authOpts = append(authOpts, services.WithLoginLimiter(limiter))
	}

	deps := httpserver.Deps{
		Tokens: codec,
		Auth:   services.NewAuthService(db, rm, codec, hasher, logger, authOpts...),
		Registration: services.NewRegistrationService(db, rm, auth.NewCodeGenerator([]byte(c.OTPSecret)), hasher, mailer,
			services.RegistrationPolicy{Window: c.RegistrationWindow, MaxTrials: c.RegistrationMaxTrials}, logger),
		Users:  services.NewUserService(db, rm, hasher, logger),
		Groups: services.NewGroupService(db, rm, logger),
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		redis:  rdb,
		http:   httpserver.NewHTTPServer(c.EndpointAddrHTTP, logger, deps),
		grpc:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db, 0),
	}, nil
}

// newMailer picks the S3 mail drop when a bucket is configured.
func newMailer(ctx context.Context, c *config.Config, logger logging.Logger) (services.Mailer, error) {
	if c.S3Bucket == "" {
		return mail.NewLogMailer(logger.With("module", "mail")), nil
	}
	client, err := mail.NewS3Client(ctx, mail.S3Config{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, err
	}
	return mail.NewS3DropMailer(client, c.S3Bucket), nil
}

// newRedis returns nil when throttling is disabled.
func newRedis(c *config.Config) *redis.Client {
	if c.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: c.RedisAddr})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

type runner interface {
	Run(ctx context.Context) error
}

// start runs r and cancels the whole app if it fails.
func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, r runner) {
	if err := r.Run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "http", app.http)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "grpc", app.grpc)
	}()

	wg.Wait()
	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
