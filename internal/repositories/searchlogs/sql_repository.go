// Package searchlogs stores the append-only log of searches made by portal
// users.
package searchlogs

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/dbx"
	"github.com/dmitrijs2005/gophportal/internal/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// SearchTime normalizes a clock reading to the resolution stored in the log.
func SearchTime(at time.Time) time.Time {
	return at.UTC().Truncate(time.Second)
}

// Record appends a log entry. A second entry with the same user, query and
// second is ignored and reported as not inserted.
func (r *SQLRepository) Record(ctx context.Context, username, query string, limit int, at time.Time) (bool, error) {
	q :=
		`INSERT INTO search_logs (username, search_query, limit_number, search_time)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (username, search_query, search_time) DO NOTHING`

	res, err := r.db.ExecContext(ctx, q, username, query, limit, SearchTime(at))
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// ListByUser returns up to n entries for username, newest first.
func (r *SQLRepository) ListByUser(ctx context.Context, username string, n int) ([]models.SearchLogEntry, error) {
	q :=
		`SELECT id, username, search_query, limit_number, search_time
		 FROM search_logs
		 WHERE username = ?
		 ORDER BY search_time DESC, id DESC
		 LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, username, n)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var entries []models.SearchLogEntry
	for rows.Next() {
		var e models.SearchLogEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Query, &e.Limit, &e.SearchTime); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}
