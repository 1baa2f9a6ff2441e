// Package storagetest provides migrated SQLite stores for tests.
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/storage"
	"github.com/stretchr/testify/require"
)

// NewSQLite returns a migrated SQLite database stored in t.TempDir().
// The handle is closed on test cleanup.
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, _, err := storage.OpenAndMigrate(context.Background(), storage.Options{
		Driver:      "sqlite",
		DSN:         filepath.Join(t.TempDir(), "portal.db"),
		BusyTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}
