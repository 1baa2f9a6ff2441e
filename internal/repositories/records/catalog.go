package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/dmitrijs2005/gophportal/internal/models"
	"github.com/dmitrijs2005/gophportal/internal/storage"
)

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Catalog maps source names to database files and opens them on first use.
type Catalog struct {
	mu          sync.Mutex
	dsns        map[string]string
	layout      Layout
	busyTimeout time.Duration
	opened      map[string]*Source
}

// NewCatalog validates the layout and the source map. Nothing is opened.
func NewCatalog(dsns map[string]string, layout Layout, busyTimeout time.Duration) (*Catalog, error) {
	if len(dsns) == 0 {
		return nil, fmt.Errorf("no record sources configured: %w", common.ErrValidation)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	m := make(map[string]string, len(dsns))
	for name, dsn := range dsns {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(dsn) == "" {
			return nil, fmt.Errorf("record source %q: empty name or dsn: %w", name, common.ErrValidation)
		}
		m[name] = dsn
	}

	return &Catalog{
		dsns:        m,
		layout:      layout,
		busyTimeout: busyTimeout,
		opened:      make(map[string]*Source),
	}, nil
}

// Names lists the configured sources in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.dsns))
	for name := range c.dsns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.dsns[name]
	return ok
}

// readOnlyDSN turns a file path into a read-only modernc.org/sqlite URI.
// DSNs that already are URIs are passed through.
func readOnlyDSN(dsn string, busyTimeout time.Duration) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn + "?mode=ro"
	}
	return storage.SQLiteDSN(dsn, busyTimeout)
}

// Source returns the named source, opening it if needed.
func (c *Catalog) Source(name string) (*Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.opened[name]; ok {
		return s, nil
	}

	dsn, ok := c.dsns[name]
	if !ok {
		return nil, fmt.Errorf("record source %q: %w", name, common.ErrNotFound)
	}

	db, err := sqlOpen("sqlite", readOnlyDSN(dsn, c.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open record source %q: %w", name, err)
	}

	s, err := NewSource(name, db, c.layout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.opened[name] = s
	return s, nil
}

// Search runs term against the named source.
func (c *Catalog) Search(ctx context.Context, name, term string, limit int) ([]models.Record, error) {
	s, err := c.Source(name)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, term, limit)
}

// Close closes every opened source.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for name, s := range c.opened {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(c.opened, name)
	}
	return errors.Join(errs...)
}
