package common

import "time"

const (
	// DefaultQuota is the number of searches granted to a freshly registered user.
	DefaultQuota = 5

	// DefaultSearchLimit is the row limit offered by the portal when the user
	// does not type one.
	DefaultSearchLimit = 100

	// DefaultBusyTimeout caps how long a single SQLite statement may wait on a lock.
	DefaultBusyTimeout = 30 * time.Second
)
