package searchlogs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophportal/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) (*SQLRepository, *sql.DB) {
	t.Helper()
	db := storagetest.NewSQLite(t)

	_, err := db.Exec(`INSERT INTO users (username, password_hash, remaining_queries, created_at) VALUES (?, ?, ?, ?)`,
		"alice", "h", 5, time.Now().UTC())
	require.NoError(t, err)

	return NewSQLRepository(db), db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM search_logs`).Scan(&n))
	return n
}

func TestSearchTime_TruncatesToUTCSecond(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	in := time.Date(2024, 5, 6, 10, 11, 12, 987654321, loc)

	got := SearchTime(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Nanosecond())
	assert.Equal(t, 7, got.Hour())
}

func TestRecord_InsertsOnce(t *testing.T) {
	repo, db := newSQLiteRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 6, 10, 11, 12, 100, time.UTC)

	inserted, err := repo.Record(ctx, "alice", "example.com", 100, at)
	require.NoError(t, err)
	assert.True(t, inserted)

	// same second, different sub-second part: collapses into one row
	inserted, err = repo.Record(ctx, "alice", "example.com", 50, at.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Equal(t, 1, countRows(t, db))
}

func TestRecord_DistinctKeysAreKept(t *testing.T) {
	repo, db := newSQLiteRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 6, 10, 11, 12, 0, time.UTC)

	for _, c := range []struct {
		q  string
		at time.Time
	}{
		{"a", at},
		{"b", at},
		{"a", at.Add(time.Second)},
	} {
		inserted, err := repo.Record(ctx, "alice", c.q, 10, c.at)
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	assert.Equal(t, 3, countRows(t, db))
}

func TestListByUser_NewestFirst(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, q := range []string{"first", "second", "third"} {
		_, err := repo.Record(ctx, "alice", q, i+1, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	got, err := repo.ListByUser(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Query)
	assert.Equal(t, 3, got[0].Limit)
	assert.True(t, got[0].SearchTime.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, "second", got[1].Query)

	none, err := repo.ListByUser(ctx, "bob", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecord_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+search_logs.*ON\s+CONFLICT\s*\(username,\s*search_query,\s*search_time\)\s*DO\s+NOTHING\s*$`).
		WithArgs("alice", "q", 5, sqlmock.AnyArg()).
		WillReturnError(errors.New("locked"))

	_, err = NewSQLRepository(db).Record(context.Background(), "alice", "q", 5, time.Now())
	require.ErrorContains(t, err, "db error: locked")
}

func TestListByUser_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "username", "search_query", "limit_number", "search_time"}).
		AddRow("not-a-number", "alice", "q", 1, time.Now())
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*username,\s*search_query.*FROM\s+search_logs`).
		WithArgs("alice", 10).
		WillReturnRows(rows)

	_, err = NewSQLRepository(db).ListByUser(context.Background(), "alice", 10)
	require.ErrorContains(t, err, "db error")
}
