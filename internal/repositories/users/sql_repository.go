// Package users persists portal accounts and their search quota.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/dmitrijs2005/gophportal/internal/dbx"
	"github.com/dmitrijs2005/gophportal/internal/models"
)

// SQLRepository implements Repository on top of a DBTX. Queries use '?'
// placeholders; callers bind the handle to their dialect with dbx.Bind.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts the user and fills in ID. A taken username yields
// common.ErrAlreadyExists.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password_hash, remaining_queries, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.RemainingQueries, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", user.Username, common.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, remaining_queries, last_search, created_at
		 FROM users
		 WHERE username = ?`

	user := &models.User{}
	var lastSearch sql.NullTime

	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.RemainingQueries,
		&lastSearch,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastSearch.Valid {
		t := lastSearch.Time
		user.LastSearch = &t
	}

	return user, nil
}

// UpdateRemainingQueries overwrites the quota and the last search time.
// It is not a compare-and-swap.
func (r *SQLRepository) UpdateRemainingQueries(ctx context.Context, username string, remaining int, at time.Time) error {
	query := `UPDATE users SET remaining_queries = ?, last_search = ? WHERE username = ?`

	res, err := r.db.ExecContext(ctx, query, remaining, at.UTC(), username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DecrementIfPositive takes one query off the user's quota in a single
// statement and returns what is left. A user at zero gets
// common.ErrQuotaExhausted and is left untouched.
func (r *SQLRepository) DecrementIfPositive(ctx context.Context, username string, at time.Time) (int, error) {
	query :=
		`UPDATE users SET remaining_queries = remaining_queries - 1, last_search = ?
		 WHERE username = ? AND remaining_queries > 0
		 RETURNING remaining_queries`

	var remaining int
	err := r.db.QueryRowContext(ctx, query, at.UTC(), username).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("db error: %w", err)
	}

	// Nothing updated: either the user is unknown or the quota is spent.
	var current int
	err = r.db.QueryRowContext(ctx, `SELECT remaining_queries FROM users WHERE username = ?`, username).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return 0, common.ErrQuotaExhausted
}
