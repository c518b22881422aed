package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/oclus/internal/cryptox"
	"github.com/dmitrijs2005/oclus/internal/logging"
	"github.com/dmitrijs2005/oclus/internal/server/auth"
	"github.com/dmitrijs2005/oclus/internal/server/mail"
	"github.com/dmitrijs2005/oclus/internal/server/models"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/memory"
	"golang.org/x/crypto/bcrypt"
)

// newTxMock returns a sqlmock DB. Repositories come from a memory store, so
// the mock only sees Begin, Commit and Rollback.
func newTxMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectCommit(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func testCodec() *auth.TokenCodec {
	return auth.NewTokenCodec(
		auth.DomainConfig{Secret: []byte("auth-secret"), Validity: 10 * time.Minute},
		auth.DomainConfig{Secret: []byte("refresh-secret"), Validity: 28 * 24 * time.Hour},
	)
}

func testHasher() *cryptox.PasswordHasher {
	return cryptox.NewPasswordHasher(bcrypt.MinCost)
}

// seedUser stores a user with the given password directly in the store.
func seedUser(t *testing.T, store *memory.Store, email, password string) *models.User {
	t.Helper()
	hash, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := store.Users(nil).Create(context.Background(), &models.User{
		Email: email, UserName: "user-" + email[:1], PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

type fixedCodes struct{ code string }

func (f fixedCodes) Generate() string { return f.code }

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fakeLimiter struct {
	checkErr error
	failErr  error
	fails    int
	resets   int
}

func (f *fakeLimiter) Check(context.Context, string, string) error { return f.checkErr }

func (f *fakeLimiter) Fail(context.Context, string, string) error {
	f.fails++
	return f.failErr
}

func (f *fakeLimiter) Reset(context.Context, string) error {
	f.resets++
	return nil
}

var nopLog = logging.Nop()
