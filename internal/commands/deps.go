package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophportal/internal/config"
	"github.com/dmitrijs2005/gophportal/internal/repositories/records"
	"github.com/dmitrijs2005/gophportal/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophportal/internal/retry"
	"github.com/dmitrijs2005/gophportal/internal/services"
	"github.com/dmitrijs2005/gophportal/internal/storage"
)

// retryPolicy builds the lock retry policy from the configured attempts
// and delay.
func retryPolicy(cfg *config.Config) *retry.Policy {
	p := retry.Fixed(cfg.RetryAttempts, cfg.RetryDelay)
	return &p
}

// accountStore is the opened account database with its services.
type accountStore struct {
	db       *sql.DB
	manager  *repomanager.SQLRepositoryManager
	accounts *services.AccountService
}

func (s *accountStore) Close() error {
	return s.db.Close()
}

// openAccounts opens and migrates the account store.
func openAccounts(ctx context.Context, e *env) (*accountStore, error) {
	db, dialect, err := storage.OpenAndMigrate(ctx, storage.Options{
		Driver:      e.cfg.DBDriver,
		DSN:         e.cfg.DBDSN,
		BusyTimeout: e.cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}

	m := repomanager.NewSQLRepositoryManager(dialect)
	accounts := services.NewAccountService(db, m, services.AccountOptions{
		DefaultQuota: e.cfg.DefaultQuota,
		BcryptCost:   e.cfg.BcryptCost,
		Retry:        retryPolicy(e.cfg),
		Logger:       e.log,
	})

	e.log.Debug(ctx, "account store ready", "driver", e.cfg.DBDriver, "dialect", string(dialect))
	return &accountStore{db: db, manager: m, accounts: accounts}, nil
}

// portalDeps is everything the interactive portal needs.
type portalDeps struct {
	store   *accountStore
	catalog *records.Catalog
	search  *services.SearchService
}

func (p *portalDeps) Close() error {
	return errors.Join(p.catalog.Close(), p.store.Close())
}

func openPortal(ctx context.Context, e *env) (*portalDeps, error) {
	store, err := openAccounts(ctx, e)
	if err != nil {
		return nil, err
	}

	layout := records.Layout{
		Table:    e.cfg.RecordsTable,
		Column:   e.cfg.RecordsColumn,
		IDColumn: e.cfg.RecordsIDColumn,
	}
	catalog, err := records.NewCatalog(e.cfg.Sources, layout, e.cfg.BusyTimeout)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("record sources: %w", err)
	}

	search := services.NewSearchService(store.db, store.manager, store.accounts, catalog, services.SearchOptions{
		DefaultSource: e.cfg.DefaultSource,
		Blacklist:     e.cfg.Blacklist,
		Retry:         retryPolicy(e.cfg),
		Logger:        e.log,
	})

	return &portalDeps{store: store, catalog: catalog, search: search}, nil
}
