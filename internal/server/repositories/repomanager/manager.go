package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/oclus/internal/dbx"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/groups"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/registrations"
	"github.com/dmitrijs2005/oclus/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repository against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Registrations(db dbx.DBTX) registrations.Repository
	Groups(db dbx.DBTX) groups.Repository
}
