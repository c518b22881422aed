// Package api is the HTTP client for the oclus server. It keeps the current
// token pair in memory and, when an authenticated call comes back 401,
// refreshes the pair once and retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/oclus/internal/common"
)

// ErrUnavailable wraps transport failures (server down, timeout).
var ErrUnavailable = errors.New("server unavailable")

// ErrNotLoggedIn is returned by authenticated calls made without tokens.
var ErrNotLoggedIn = errors.New("not logged in")

// Error is a non-2xx answer decoded from the server's {"kind","field"} body.
type Error struct {
	Status int    `json:"-"`
	Kind   string `json:"kind"`
	Field  string `json:"field"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Field)
	}
	return e.Kind
}

// Is lets callers match server errors against the common sentinels.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case "unauthorized":
		return target == common.ErrorUnauthorized
	case "not_found":
		return target == common.ErrorNotFound
	case "conflict":
		return target == common.ErrorConflict
	case "invalid_data":
		return target == common.ErrorInvalidData
	case "rate_limited":
		return target == common.ErrorRateLimited
	case "internal":
		return target == common.ErrorInternal
	}
	return false
}

type TokenPair struct {
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
}

type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	RegisteredOn time.Time `json:"registered_on"`
}

type PublicProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Group carries only Name when the caller is not the owner.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Client struct {
	baseURL string
	http    *http.Client

	mu     sync.Mutex
	tokens TokenPair
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Tokens() TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) setTokens(p TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = p
}

func (c *Client) LoggedIn() bool {
	return c.Tokens().AuthToken != ""
}

func (c *Client) Logout() {
	c.setTokens(TokenPair{})
}

func (c *Client) Register(ctx context.Context, email string) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{"email": email}, &out, nil)
	return out.ID, err
}

func (c *Client) Confirm(ctx context.Context, requestID int64, code, username, password string) (*Profile, error) {
	body := map[string]any{"request_id": requestID, "code": code, "username": username, "password": password}
	var out Profile
	if err := c.do(ctx, http.MethodPost, "/auth/register/confirm", body, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login stores the returned pair on success.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out TokenPair
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out, nil); err != nil {
		return err
	}
	c.setTokens(out)
	return nil
}

// Refresh trades the stored refresh token for a new pair. A rejected token
// logs the client out.
func (c *Client) Refresh(ctx context.Context) error {
	current := c.Tokens().RefreshToken
	if current == "" {
		return ErrNotLoggedIn
	}
	var out TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": current}, &out, nil)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			c.Logout()
		}
		return err
	}
	c.setTokens(out)
	return nil
}

func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.authed(ctx, http.MethodGet, "/users/me", nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) User(ctx context.Context, id string) (*PublicProfile, error) {
	var out PublicProfile
	if err := c.authed(ctx, http.MethodGet, "/users/"+id, nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe changes the non-nil fields. password re-proves the account owner.
func (c *Client) UpdateMe(ctx context.Context, password string, email, username *string) (*Profile, error) {
	body := map[string]*string{}
	if email != nil {
		body["email"] = email
	}
	if username != nil {
		body["username"] = username
	}
	var out Profile
	if err := c.authed(ctx, http.MethodPut, "/users/me/update", body, &out, password); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword succeeds with stale refresh tokens server-side, so the
// local pair is dropped too.
func (c *Client) ChangePassword(ctx context.Context, password, newPassword string) error {
	body := map[string]string{"new_password": newPassword}
	if err := c.authed(ctx, http.MethodPut, "/users/me/password", body, nil, password); err != nil {
		return err
	}
	c.Logout()
	return nil
}

func (c *Client) DeleteMe(ctx context.Context, password string) error {
	if err := c.authed(ctx, http.MethodDelete, "/users/me/delete", nil, nil, password); err != nil {
		return err
	}
	c.Logout()
	return nil
}

func (c *Client) CreateGroup(ctx context.Context, name string) (*Group, error) {
	var out Group
	if err := c.authed(ctx, http.MethodPost, "/groups/create", map[string]string{"name": name}, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Group(ctx context.Context, id int64) (*Group, error) {
	var out Group
	if err := c.authed(ctx, http.MethodGet, "/groups/"+strconv.FormatInt(id, 10), nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

// authed sends the auth token and, on 401, refreshes once and retries.
func (c *Client) authed(ctx context.Context, method, path string, body, out any, password string) error {
	if !c.LoggedIn() {
		return ErrNotLoggedIn
	}

	send := func() error {
		h := http.Header{}
		h.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.Tokens().AuthToken)
		if password != "" {
			h.Set(common.PasswordHeaderName, password)
		}
		return c.do(ctx, method, path, body, out, h)
	}

	err := send()
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}
	if rerr := c.Refresh(ctx); rerr != nil {
		return err
	}
	return send()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, h http.Header) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	for k, v := range h {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		if apiErr.Kind == "" {
			apiErr.Kind = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
