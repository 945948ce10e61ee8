package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/organlink/internal/dbx"
	"github.com/dmitrijs2005/organlink/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/organlink/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/organlink/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services choose
// per call whether to work on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	AuditLogs(db dbx.DBTX) auditlogs.Repository
}
