// Package models holds the records persisted by the account store and the
// rows read from record sources.
package models

import "time"

// User is a portal account together with its search quota.
type User struct {
	ID               int64      `db:"id"`
	Username         string     `db:"username"`
	PasswordHash     string     `db:"password_hash"`
	RemainingQueries int        `db:"remaining_queries"`
	LastSearch       *time.Time `db:"last_search"`
	CreatedAt        time.Time  `db:"created_at"`
}
