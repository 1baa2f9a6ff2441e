// Package repomanager hands out repositories bound to a database handle or
// transaction and runs schema migrations for the configured dialect.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophportal/internal/dbx"
	"github.com/dmitrijs2005/gophportal/internal/repositories/searchlogs"
	"github.com/dmitrijs2005/gophportal/internal/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	SearchLogs(db dbx.DBTX) searchlogs.Repository
}
