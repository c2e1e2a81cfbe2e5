// Package db stores finished DVA runs in sqlite so repeated uploads are
// answered without recomputing.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/racetime/internal/timeutil"
)

// MemoryDSN keeps the database inside the process.
const MemoryDSN = ":memory:"

type DB struct {
	*sql.DB
	dsn   string
	clock timeutil.Clock
}

// NewDB opens dsn and applies all migrations using the wall clock.
func NewDB(dsn string) (*DB, error) {
	return OpenDB(dsn, timeutil.RealClock{})
}

// OpenDB opens dsn, applies pragmas and migrations, and stamps new runs
// with clock.
func OpenDB(dsn string, clock timeutil.Clock) (*DB, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dsn, err)
	}
	// Every connection to an in-memory database is a separate database.
	if isMemory(dsn) {
		sqlDB.SetMaxOpenConns(1)
	}

	db := &DB{DB: sqlDB, dsn: dsn, clock: clock}
	if err := db.applyPragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func isMemory(dsn string) bool {
	return dsn == MemoryDSN || strings.Contains(dsn, "mode=memory")
}

func (db *DB) applyPragmas() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if !isMemory(db.dsn) {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

// DSN returns the data source the database was opened with.
func (db *DB) DSN() string {
	return db.dsn
}
