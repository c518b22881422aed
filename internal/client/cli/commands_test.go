package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/oclus/internal/client/api"
	"github.com/dmitrijs2005/oclus/internal/client/config"
	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	loggedIn bool
	err      error

	gotEmail    string
	gotPassword string
	gotNew      string
	gotUpdate   [2]*string
	gotConfirm  []any
	deleted     bool
}

func (f *fakeAPI) LoggedIn() bool { return f.loggedIn }

func (f *fakeAPI) Register(_ context.Context, email string) (int64, error) {
	f.gotEmail = email
	return 12, f.err
}

func (f *fakeAPI) Confirm(_ context.Context, id int64, code, username, password string) (*api.Profile, error) {
	f.gotConfirm = []any{id, code, username, password}
	if f.err != nil {
		return nil, f.err
	}
	return &api.Profile{ID: "u1", Username: username}, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) error {
	f.gotEmail, f.gotPassword = email, password
	if f.err == nil {
		f.loggedIn = true
	}
	return f.err
}

func (f *fakeAPI) Refresh(context.Context) error { return f.err }

func (f *fakeAPI) Me(context.Context) (*api.Profile, error) {
	return &api.Profile{ID: "u1", Email: "a@example.com", Username: "alice", RegisteredOn: time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)}, f.err
}

func (f *fakeAPI) User(_ context.Context, id string) (*api.PublicProfile, error) {
	return &api.PublicProfile{ID: id, Username: "bob"}, f.err
}

func (f *fakeAPI) UpdateMe(_ context.Context, password string, email, username *string) (*api.Profile, error) {
	f.gotPassword = password
	f.gotUpdate = [2]*string{email, username}
	return &api.Profile{ID: "u1"}, f.err
}

func (f *fakeAPI) ChangePassword(_ context.Context, password, newPassword string) error {
	f.gotPassword, f.gotNew = password, newPassword
	return f.err
}

func (f *fakeAPI) DeleteMe(_ context.Context, password string) error {
	f.gotPassword = password
	f.deleted = f.err == nil
	return f.err
}

func (f *fakeAPI) CreateGroup(_ context.Context, name string) (*api.Group, error) {
	return &api.Group{ID: 1, Name: name, OwnerID: "u1"}, f.err
}

func (f *fakeAPI) Group(_ context.Context, id int64) (*api.Group, error) {
	return &api.Group{Name: "admins"}, f.err
}

// newTestApp scripts the text answers and the password prompts.
func newTestApp(t *testing.T, f *fakeAPI, input string, passwords ...string) (*App, *bytes.Buffer) {
	t.Helper()
	orig := getPassword
	getPassword = func(string, io.Writer) (string, error) {
		if len(passwords) == 0 {
			t.Fatal("unexpected password prompt")
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return pw, nil
	}
	t.Cleanup(func() { getPassword = orig })

	var out bytes.Buffer
	return &App{
		config: &config.Config{},
		api:    f,
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    &out,
	}, &out
}

func TestApp_RegisterAndConfirm(t *testing.T) {
	f := &fakeAPI{}
	a, out := newTestApp(t, f, "new@example.com\n12\n654321\nnewbie\n", "correct horse battery")
	ctx := context.Background()

	require.NoError(t, a.Register(ctx))
	assert.Equal(t, "new@example.com", f.gotEmail)
	assert.Contains(t, out.String(), "Registration request 12 created")

	require.NoError(t, a.Confirm(ctx))
	assert.Equal(t, []any{int64(12), "654321", "newbie", "correct horse battery"}, f.gotConfirm)
	assert.Contains(t, out.String(), "Welcome, newbie!")
}

func TestApp_RegisterConflict(t *testing.T) {
	f := &fakeAPI{err: &api.Error{Status: 409, Kind: "conflict", Field: "email"}}
	a, _ := newTestApp(t, f, "taken@example.com\n")

	err := a.Register(context.Background())
	assert.EqualError(t, err, "email is already registered")
}

func TestApp_ConfirmBadID(t *testing.T) {
	a, _ := newTestApp(t, &fakeAPI{}, "abc\n")
	assert.ErrorContains(t, a.Confirm(context.Background()), "invalid request id")
}

func TestApp_Login(t *testing.T) {
	f := &fakeAPI{}
	a, out := newTestApp(t, f, "a@example.com\n", "pw")
	require.NoError(t, a.Login(context.Background()))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "pw", f.gotPassword)
	assert.Contains(t, out.String(), "Login successful")

	f = &fakeAPI{err: &api.Error{Status: 429, Kind: "rate_limited"}}
	a, _ = newTestApp(t, f, "a@example.com\n", "pw")
	assert.ErrorContains(t, a.Login(context.Background()), "too many failed attempts")
}

func TestApp_StrongCommandsNeedLogin(t *testing.T) {
	a, _ := newTestApp(t, &fakeAPI{}, "")
	ctx := context.Background()
	assert.ErrorIs(t, a.Update(ctx), errNotLoggedIn)
	assert.ErrorIs(t, a.Passwd(ctx), errNotLoggedIn)
	assert.ErrorIs(t, a.Delete(ctx), errNotLoggedIn)
	assert.ErrorIs(t, a.Refresh(ctx), errNotLoggedIn)
}

func TestApp_Update(t *testing.T) {
	f := &fakeAPI{loggedIn: true}
	a, _ := newTestApp(t, f, "\nrenamed\n", "pw")
	require.NoError(t, a.Update(context.Background()))
	assert.Nil(t, f.gotUpdate[0])
	require.NotNil(t, f.gotUpdate[1])
	assert.Equal(t, "renamed", *f.gotUpdate[1])
	assert.Equal(t, "pw", f.gotPassword)

	a, _ = newTestApp(t, f, "\n\n")
	assert.ErrorContains(t, a.Update(context.Background()), "nothing to update")
}

func TestApp_Passwd(t *testing.T) {
	f := &fakeAPI{loggedIn: true}
	a, _ := newTestApp(t, f, "", "old", "new long password", "new long password")
	require.NoError(t, a.Passwd(context.Background()))
	assert.Equal(t, "old", f.gotPassword)
	assert.Equal(t, "new long password", f.gotNew)

	a, _ = newTestApp(t, f, "", "old", "one", "two")
	assert.ErrorContains(t, a.Passwd(context.Background()), "do not match")
}

func TestApp_Delete(t *testing.T) {
	f := &fakeAPI{loggedIn: true}
	a, out := newTestApp(t, f, "no\n")
	require.NoError(t, a.Delete(context.Background()))
	assert.False(t, f.deleted)
	assert.Contains(t, out.String(), "Cancelled")

	a, _ = newTestApp(t, f, "yes\n", "pw")
	require.NoError(t, a.Delete(context.Background()))
	assert.True(t, f.deleted)

	f = &fakeAPI{loggedIn: true, err: &api.Error{Status: 401, Kind: "unauthorized"}}
	a, _ = newTestApp(t, f, "yes\n", "wrong")
	assert.ErrorIs(t, a.Delete(context.Background()), common.ErrorUnauthorized)
}

func TestApp_ProfileAndGroups(t *testing.T) {
	f := &fakeAPI{loggedIn: true}
	a, out := newTestApp(t, f, "admins\n")
	ctx := context.Background()

	require.NoError(t, a.Me(ctx))
	assert.Contains(t, out.String(), "username: alice")
	assert.Contains(t, out.String(), "registered: 2025-01-02 03:04")

	require.NoError(t, a.User(ctx, "u2"))
	assert.Contains(t, out.String(), "username: bob")

	require.NoError(t, a.GroupCreate(ctx))
	assert.Contains(t, out.String(), "owner: u1")

	out.Reset()
	require.NoError(t, a.Group(ctx, "1"))
	assert.Equal(t, "name: admins\n", out.String())

	assert.ErrorContains(t, a.Group(ctx, "x"), "invalid group id")
}
