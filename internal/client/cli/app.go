package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/oclus/internal/client/api"
	"github.com/dmitrijs2005/oclus/internal/client/config"
)

type apiClient interface {
	LoggedIn() bool
	Register(ctx context.Context, email string) (int64, error)
	Confirm(ctx context.Context, requestID int64, code, username, password string) (*api.Profile, error)
	Login(ctx context.Context, email, password string) error
	Refresh(ctx context.Context) error
	Me(ctx context.Context) (*api.Profile, error)
	User(ctx context.Context, id string) (*api.PublicProfile, error)
	UpdateMe(ctx context.Context, password string, email, username *string) (*api.Profile, error)
	ChangePassword(ctx context.Context, password, newPassword string) error
	DeleteMe(ctx context.Context, password string) error
	CreateGroup(ctx context.Context, name string) (*api.Group, error)
	Group(ctx context.Context, id int64) (*api.Group, error)
}

type App struct {
	config *config.Config
	api    apiClient
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    api.New(c.ServerBaseURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return "logged in"
	}
	return "anonymous"
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "oclus client, server %s. Type help for commands.\n", a.config.ServerBaseURL)
	runREPL(ctx, a, a.status, a.reader)
}
