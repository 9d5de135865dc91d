// Package calibdb keeps a history of stereo calibrations in SQLite. Each
// record stores the same YAML documents that the calibration files hold, so
// any recorded calibration can be restored into a working stereo model.
package calibdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/stereocal/internal/timeutil"
)

// DB is a calibration registry backed by SQLite.
type DB struct {
	*sql.DB
	clock timeutil.Clock
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the clock used to stamp recorded calibrations.
func WithClock(c timeutil.Clock) Option {
	return func(db *DB) { db.clock = c }
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens the registry at path, creating it if needed, and applies any
// pending schema migrations.
func Open(path string, opts ...Option) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open calibration database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	db := &DB{DB: sqlDB, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(db)
	}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}
