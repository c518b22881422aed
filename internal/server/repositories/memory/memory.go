// Package memory is an in-process RepositoryManager with the same semantics
// as the PostgreSQL one (unique emails, owner foreign keys, cascading
// deletes, single-slot refresh tokens). Service and HTTP tests run against
// it. It ignores the DBTX it is handed, so writes are not rolled back with
// a failed transaction.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/dmitrijs2005/oclus/internal/dbx"
	"github.com/dmitrijs2005/oclus/internal/server/models"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/groups"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/registrations"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/users"
	"github.com/google/uuid"
)

type userRow struct {
	user         models.User
	refreshToken string
}

type Store struct {
	mu        sync.Mutex
	users     map[string]*userRow
	regs      map[int64]*models.RegistrationRequest
	groups    map[int64]*models.Group
	nextReg   int64
	nextGroup int64
	now       func() time.Time
}

func New() *Store {
	return &Store{
		users:  make(map[string]*userRow),
		regs:   make(map[int64]*models.RegistrationRequest),
		groups: make(map[int64]*models.Group),
		now:    time.Now,
	}
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository                 { return (*userRepo)(s) }
func (s *Store) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*refreshRepo)(s) }
func (s *Store) Registrations(dbx.DBTX) registrations.Repository { return (*registrationRepo)(s) }
func (s *Store) Groups(dbx.DBTX) groups.Repository               { return (*groupRepo)(s) }

// RefreshToken returns the stored refresh token of userID.
func (s *Store) RefreshToken(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.users[userID]; ok {
		return row.refreshToken
	}
	return ""
}

// Registration returns a copy of pending request id.
func (s *Store) Registration(id int64) (models.RegistrationRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.regs[id]; ok {
		return *r, true
	}
	return models.RegistrationRequest{}, false
}

// PendingRegistrations returns the ids of pending requests for email.
func (s *Store) PendingRegistrations(email string) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, r := range s.regs {
		if r.Email == email {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetSentOn moves a pending request in time.
func (s *Store) SetSentOn(id int64, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.regs[id]; ok {
		r.SentOn = t
	}
}

func (s *Store) emailTaken(email, exceptID string) bool {
	for id, row := range s.users {
		if id != exceptID && row.user.Email == email {
			return true
		}
	}
	return false
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(u.Email, "") {
		return nil, common.NewConflictError("email")
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = &userRow{user: *u}
	return u, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := row.user
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.users {
		if row.user.Email == email {
			u := row.user
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailTaken(email, ""), nil
}

func (r *userRepo) Update(_ context.Context, u *models.User) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.users[u.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if s.emailTaken(u.Email, u.ID) {
		return nil, common.NewConflictError("email")
	}
	row.user.Email = u.Email
	row.user.UserName = u.UserName
	out := row.user
	return &out, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id string, hash string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.user.PasswordHash = hash
	row.refreshToken = ""
	return nil
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(s.users, id)
	for gid, g := range s.groups {
		if g.OwnerID == id {
			delete(s.groups, gid)
		}
	}
	return nil
}

type refreshRepo Store

func (r *refreshRepo) Set(_ context.Context, userID, token string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	row.refreshToken = token
	return nil
}

func (r *refreshRepo) Lock(_ context.Context, userID string) (string, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.users[userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return row.refreshToken, nil
}

func (r *refreshRepo) Clear(ctx context.Context, userID string) error {
	return r.Set(ctx, userID, "")
}

type registrationRepo Store

func (r *registrationRepo) Create(_ context.Context, req *models.RegistrationRequest) (*models.RegistrationRequest, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReg++
	req.ID = s.nextReg
	req.Trials = 0
	stored := *req
	s.regs[req.ID] = &stored
	return req, nil
}

func (r *registrationRepo) Get(_ context.Context, id int64) (*models.RegistrationRequest, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.regs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *req
	return &out, nil
}

func (r *registrationRepo) ClaimTrial(_ context.Context, id int64, maxTrials int) (*models.RegistrationRequest, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.regs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if req.Trials >= maxTrials {
		return nil, registrations.ErrNoTrialsLeft
	}
	req.Trials++
	out := *req
	return &out, nil
}

func (r *registrationRepo) DeleteByEmail(_ context.Context, email string) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, req := range s.regs {
		if req.Email == email {
			delete(s.regs, id)
			n++
		}
	}
	return n, nil
}

type groupRepo Store

func (r *groupRepo) Create(_ context.Context, g *models.Group) (*models.Group, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[g.OwnerID]; !ok {
		return nil, fmt.Errorf("owner: %w", common.ErrorNotFound)
	}
	s.nextGroup++
	g.ID = s.nextGroup
	g.CreatedAt = s.now().UTC()
	stored := *g
	s.groups[g.ID] = &stored
	return g, nil
}

func (r *groupRepo) Get(_ context.Context, id int64) (*models.Group, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *g
	return &out, nil
}

func (r *groupRepo) Update(_ context.Context, g *models.Group) (*models.Group, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.groups[g.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if _, ok := s.users[g.OwnerID]; !ok {
		return nil, fmt.Errorf("owner: %w", common.ErrorNotFound)
	}
	stored.Name = g.Name
	stored.OwnerID = g.OwnerID
	out := *stored
	return &out, nil
}

func (r *groupRepo) Delete(_ context.Context, id int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return common.ErrorNotFound
	}
	delete(s.groups, id)
	return nil
}
