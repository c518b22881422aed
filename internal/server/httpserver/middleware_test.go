package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/logging"
	"github.com/dmitrijs2005/oclus/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testCodec() *auth.TokenCodec {
	return auth.NewTokenCodec(
		auth.DomainConfig{Secret: []byte("auth-secret"), Validity: 10 * time.Minute},
		auth.DomainConfig{Secret: []byte("refresh-secret"), Validity: time.Hour},
	)
}

type fakeVerifier struct {
	password string
	err      error
	calls    int
}

func (f *fakeVerifier) VerifyPassword(_ context.Context, _ string, password string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return password == f.password, nil
}

// serveChain runs the chain and reports the status seen by the final handler.
func serveChain(t *testing.T, chain []gin.HandlerFunc, header http.Header) (*httptest.ResponseRecorder, AuthStatus, bool) {
	t.Helper()
	var (
		seen   AuthStatus
		hasAny bool
	)
	r := gin.New()
	full := append(chain, func(c *gin.Context) {
		seen, hasAny = StatusFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	r.GET("/check", full...)

	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen, hasAny
}

func bearer(token string) http.Header {
	return http.Header{common.AuthorizationHeaderName: {common.BearerPrefix + token}}
}

func TestAuthenticate(t *testing.T) {
	codec := testCodec()
	mw := []gin.HandlerFunc{authenticate(codec, logging.Nop())}

	authToken, err := codec.Issue("u1", auth.DomainAuth)
	require.NoError(t, err)
	refreshToken, err := codec.Issue("u1", auth.DomainRefresh)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   http.Header
		wantAuth bool
	}{
		{"no header", nil, false},
		{"not bearer", http.Header{common.AuthorizationHeaderName: {"Basic dXNlcjpwYXNz"}}, false},
		{"empty bearer", bearer(""), false},
		{"garbage", bearer("abc.def.ghi"), false},
		{"refresh token", bearer(refreshToken), false},
		{"auth token", bearer(authToken), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, status, ok := serveChain(t, mw, tt.header)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantAuth, ok)
			if tt.wantAuth {
				assert.Equal(t, "u1", status.UserID())
				assert.Equal(t, TierWeak, status.Tier())
			}
		})
	}
}

func TestStrongAuthenticate(t *testing.T) {
	codec := testCodec()
	token, err := codec.Issue("u1", auth.DomainAuth)
	require.NoError(t, err)

	withPassword := func(h http.Header, pw string) http.Header {
		if h == nil {
			h = http.Header{}
		}
		h.Set(common.PasswordHeaderName, pw)
		return h
	}

	t.Run("right password promotes", func(t *testing.T) {
		v := &fakeVerifier{password: "hunter2hunter2"}
		mw := []gin.HandlerFunc{authenticate(codec, logging.Nop()), strongAuthenticate(v, logging.Nop())}
		_, status, ok := serveChain(t, mw, withPassword(bearer(token), "hunter2hunter2"))
		require.True(t, ok)
		assert.True(t, status.Strong())
		assert.Equal(t, "u1", status.UserID())
	})

	t.Run("wrong password stays weak", func(t *testing.T) {
		v := &fakeVerifier{password: "hunter2hunter2"}
		mw := []gin.HandlerFunc{authenticate(codec, logging.Nop()), strongAuthenticate(v, logging.Nop())}
		w, status, ok := serveChain(t, mw, withPassword(bearer(token), "nope"))
		assert.Equal(t, http.StatusOK, w.Code)
		require.True(t, ok)
		assert.False(t, status.Strong())
	})

	t.Run("no password header", func(t *testing.T) {
		v := &fakeVerifier{password: "hunter2hunter2"}
		mw := []gin.HandlerFunc{authenticate(codec, logging.Nop()), strongAuthenticate(v, logging.Nop())}
		_, status, ok := serveChain(t, mw, bearer(token))
		require.True(t, ok)
		assert.False(t, status.Strong())
		assert.Zero(t, v.calls)
	})

	t.Run("password without identity", func(t *testing.T) {
		v := &fakeVerifier{password: "hunter2hunter2"}
		mw := []gin.HandlerFunc{authenticate(codec, logging.Nop()), strongAuthenticate(v, logging.Nop())}
		_, _, ok := serveChain(t, mw, withPassword(nil, "hunter2hunter2"))
		assert.False(t, ok)
		assert.Zero(t, v.calls)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		v := &fakeVerifier{err: common.ErrorInternal}
		mw := []gin.HandlerFunc{authenticate(codec, logging.Nop()), strongAuthenticate(v, logging.Nop())}
		w, _, _ := serveChain(t, mw, withPassword(bearer(token), "hunter2hunter2"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"kind":"internal"}`, w.Body.String())
	})
}

func TestRequestID(t *testing.T) {
	mw := []gin.HandlerFunc{requestID()}

	w, _, _ := serveChain(t, mw, http.Header{common.RequestIDHeaderName: {"req-42"}})
	assert.Equal(t, "req-42", w.Header().Get(common.RequestIDHeaderName))

	w, _, _ = serveChain(t, mw, http.Header{"x-request-id": {"req-43"}})
	assert.Equal(t, "req-43", w.Header().Get(common.RequestIDHeaderName))

	w, _, _ = serveChain(t, mw, nil)
	assert.Len(t, w.Header().Get(common.RequestIDHeaderName), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(recovery(logging.Nop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"kind":"internal"}`, w.Body.String())
}

func TestStatusPromotion(t *testing.T) {
	s := weakStatus("u1")
	assert.False(t, s.Strong())
	p := s.promote()
	assert.True(t, p.Strong())
	assert.Equal(t, "u1", p.UserID())
	assert.False(t, s.Strong(), "promote must not mutate the weak status")

	_, ok := StatusFromContext(context.Background())
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{common.ErrorUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{common.ErrorNotFound, http.StatusNotFound, "not_found"},
		{common.NewConflictError("email"), http.StatusConflict, "conflict"},
		{common.ErrorInvalidData, http.StatusBadRequest, "invalid_data"},
		{common.ErrorRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{common.ErrorInternal, http.StatusInternalServerError, "internal"},
		{errors.New("surprise"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, kind := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.kind, kind, tt.err.Error())
	}
}

func TestValidUsername(t *testing.T) {
	for name, want := range map[string]bool{
		"abcd":                              true,
		"a_b-C9":                            true,
		"abc":                               false,
		"has space":                         false,
		"émile":                             false,
		"abcdefghijklmnopqrstuvwxyz0123456": false,
	} {
		assert.Equal(t, want, usernamePattern.MatchString(name), name)
	}
}
