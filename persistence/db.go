// Package persistence implements the Entity Store, Auxiliary Indexer, Query
// Compiler, Media-Source Reconciler, and Tag & Cue Resolver over a single
// embedded SQLite database.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/conf"
	"github.com/vinylindex/vinylindex/log"
)

// Open opens the database at the configured path, applying the pragma
// contract, and returns a dbx.Builder ready for repository construction.
func Open(ctx context.Context, cfg conf.Database) (*dbx.DB, error) {
	dsn := buildDSN(cfg)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)

	db := dbx.NewFromDB(sqlDB, "sqlite3")
	db.ExecLogFunc = func(_ context.Context, _ float64, sql string, _ []interface{}, _ error) {
		log.Debug(ctx, "persistence: executed sql", "sql", sql)
	}
	if err := checkpointTruncate(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func buildDSN(cfg conf.Database) string {
	q := url.Values{}
	for k, v := range cfg.Pragmas() {
		q.Add("_"+k, v)
	}
	return fmt.Sprintf("file:%s?%s", cfg.Path, q.Encode())
}

// checkpointTruncate runs a truncating WAL checkpoint on open, per spec §6.
func checkpointTruncate(ctx context.Context, db *dbx.DB) error {
	_, err := db.NewQuery("PRAGMA wal_checkpoint(TRUNCATE)").Execute()
	if err != nil {
		return fmt.Errorf("persistence: truncating checkpoint: %w", err)
	}
	return nil
}
