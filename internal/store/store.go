// Package store bootstraps the two SQLite databases tessera works with:
// the data database and the log database. Opening either one applies
// the connection pragmas and brings the schema to the latest embedded
// migration, so callers always receive a pool that is ready to query.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

//go:embed migrations/data/*.sql
var dataMigrations embed.FS

//go:embed migrations/log/*.sql
var logMigrations embed.FS

// DefaultBusyTimeout is how long a connection waits on a locked
// database before reporting contention.
const DefaultBusyTimeout = 5 * time.Second

// Options controls connection-level behavior. The zero value is usable.
type Options struct {
	// BusyTimeout overrides DefaultBusyTimeout when positive.
	BusyTimeout time.Duration
}

// Open opens a pooled SQLite handle with WAL journaling, NORMAL
// synchronous durability, foreign key enforcement, and a busy timeout.
// The pragmas are carried in the DSN so every pooled connection gets
// them, not just the first.
func Open(path string, opts Options) (*sql.DB, error) {
	timeout := opts.BusyTimeout
	if timeout <= 0 {
		timeout = DefaultBusyTimeout
	}

	dsn := fmt.Sprintf(
		"%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)",
		path, timeout.Milliseconds(),
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// A plain :memory: path gives every pooled connection its own
	// private database; pin the pool to one connection so they share.
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

// OpenData opens the data database and migrates it to the latest schema.
func OpenData(path string, opts Options) (*sql.DB, error) {
	logrus.WithField("path", path).Debug("setting up data pool")
	return openMigrated(path, opts, dataMigrations, "migrations/data")
}

// OpenLog opens the log database and migrates it to the latest schema.
func OpenLog(path string, opts Options) (*sql.DB, error) {
	logrus.WithField("path", path).Debug("setting up log pool")
	return openMigrated(path, opts, logMigrations, "migrations/log")
}

func openMigrated(path string, opts Options, migrations embed.FS, dir string) (*sql.DB, error) {
	db, err := Open(path, opts)
	if err != nil {
		return nil, err
	}

	scripts, err := fs.Sub(migrations, dir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	if err := Migrate(db, scripts); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	return db, nil
}
