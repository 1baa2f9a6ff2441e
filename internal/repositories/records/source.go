// Package records searches the read-only record databases offered by the
// portal. Each database is a SQLite file holding one text column that is
// matched with LIKE.
package records

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/dmitrijs2005/gophportal/internal/models"
)

const (
	DefaultTable    = "url_mail_pass"
	DefaultColumn   = "url_mail_pass"
	DefaultIDColumn = "rowid"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Layout names the table and columns searched in a record database.
type Layout struct {
	Table    string
	Column   string
	IDColumn string
}

// DefaultLayout returns the url_mail_pass layout.
func DefaultLayout() Layout {
	return Layout{Table: DefaultTable, Column: DefaultColumn, IDColumn: DefaultIDColumn}
}

// Validate checks that every name is a plain SQL identifier. The names are
// spliced into the query text, so nothing else is accepted.
func (l Layout) Validate() error {
	for _, id := range []string{l.Table, l.Column, l.IDColumn} {
		if !identRe.MatchString(id) {
			return fmt.Errorf("invalid identifier %q: %w", id, common.ErrValidation)
		}
	}
	return nil
}

// Source is one opened record database.
type Source struct {
	name   string
	db     *sql.DB
	layout Layout
	query  string
}

// NewSource wraps an opened database. The layout is validated once here.
func NewSource(name string, db *sql.DB, layout Layout) (*Source, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s LIKE ? LIMIT ?`,
		layout.IDColumn, layout.Column, layout.Table, layout.Column)
	return &Source{name: name, db: db, layout: layout, query: q}, nil
}

func (s *Source) Name() string { return s.name }

// Search returns up to limit rows whose value contains term. LIKE wildcards
// in term are not escaped.
func (s *Source) Search(ctx context.Context, term string, limit int) ([]models.Record, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive: %w", common.ErrValidation)
	}

	rows, err := s.db.QueryContext(ctx, s.query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.name, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var (
			rec   models.Record
			value sql.NullString
		)
		if err := rows.Scan(&rec.ID, &value); err != nil {
			return nil, fmt.Errorf("source %s: %w", s.name, err)
		}
		rec.Value = value.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source %s: %w", s.name, err)
	}

	return out, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}
