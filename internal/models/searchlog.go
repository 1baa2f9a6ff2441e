package models

import "time"

// SearchLogEntry is one row of the append-only search log. The triple
// (Username, Query, SearchTime) is unique.
type SearchLogEntry struct {
	ID         int64     `db:"id"`
	Username   string    `db:"username"`
	Query      string    `db:"search_query"`
	Limit      int       `db:"limit_number"`
	SearchTime time.Time `db:"search_time"`
}
