// Package storage opens the account store, applies connection settings for
// the configured driver and runs the embedded goose migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/dbx"
	"github.com/dmitrijs2005/gophportal/internal/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const defaultPingTimeout = 5 * time.Second

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Options controls how a store is opened.
type Options struct {
	Driver      string
	DSN         string
	BusyTimeout time.Duration
}

// SQLiteDSN appends the busy_timeout pragma to a modernc.org/sqlite DSN.
func SQLiteDSN(dsn string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 || strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, busyTimeout.Milliseconds())
}

// Open connects to the database described by opts and pings it.
// It does not run migrations.
func Open(ctx context.Context, opts Options) (*sql.DB, dbx.Dialect, error) {
	dialect, err := dbx.DialectForDriver(opts.Driver)
	if err != nil {
		return nil, "", err
	}

	dsn := opts.DSN
	driver := opts.Driver
	if dialect == dbx.DialectSQLite {
		dsn = SQLiteDSN(dsn, opts.BusyTimeout)
		driver = "sqlite"
	} else {
		driver = "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("db open error: %w", err)
	}

	if dialect == dbx.DialectPostgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("db ping error: %w", err)
	}

	return db, dialect, nil
}

// Migrate applies every pending migration for the dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	var gooseDialect string
	switch dialect {
	case dbx.DialectSQLite:
		gooseDialect = "sqlite3"
	case dbx.DialectPostgres:
		gooseDialect = "postgres"
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := gooseUpContext(ctx, db, string(dialect)); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// OpenAndMigrate opens the store and brings its schema up to date.
func OpenAndMigrate(ctx context.Context, opts Options) (*sql.DB, dbx.Dialect, error) {
	db, dialect, err := Open(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, "", err
	}
	return db, dialect, nil
}
