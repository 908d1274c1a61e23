package persistence

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pocketbase/dbx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	_ "github.com/vinylindex/vinylindex/db/migrations"
)

// openTestDB opens an in-memory SQLite database shared across a single
// connection and runs every goose migration against it, grounded on the
// catalog-api pack repo's sql.Open("sqlite3", "file::memory:?cache=shared")
// pattern. A single open connection is required: SQLite's ":memory:" database
// is private per-connection, and dbx/database/sql otherwise hands out a fresh
// one per query.
func openTestDB(t *testing.T) *dbx.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(sqlDB, "../db/migrations"))

	return dbx.NewFromDB(sqlDB, "sqlite3")
}

func testContext() context.Context {
	return context.Background()
}
