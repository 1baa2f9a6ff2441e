package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophportal/internal/dbx"
	"github.com/dmitrijs2005/gophportal/internal/repositories/searchlogs"
	"github.com/dmitrijs2005/gophportal/internal/repositories/users"
	"github.com/dmitrijs2005/gophportal/internal/storage"
)

// migrate is a seam for testing storage.Migrate.
var migrate = storage.Migrate

// SQLRepositoryManager vends the SQL repositories for one dialect. Handles
// are rebound so that '?' placeholders reach the driver in native form.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func NewSQLRepositoryManager(dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: dialect}
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect { return m.dialect }

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(dbx.Bind(db, m.dialect))
}

// SearchLogs returns a searchlogs.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) SearchLogs(db dbx.DBTX) searchlogs.Repository {
	return searchlogs.NewSQLRepository(dbx.Bind(db, m.dialect))
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, m.dialect)
}
