package store

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"

	"github.com/sirupsen/logrus"
)

// Migrate brings db to the latest schema version. The .sql scripts in
// fsys are up-scripts applied in lexicographic order, each inside its
// own transaction. Progress is tracked with PRAGMA user_version, so
// reopening an already-migrated database is a no-op and a restart
// midway resumes at the first unapplied script.
func Migrate(db *sql.DB, fsys fs.FS) error {
	scripts, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(scripts)

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(scripts) {
		return fmt.Errorf("database at schema version %d but only %d migrations are known", version, len(scripts))
	}

	for i := version; i < len(scripts); i++ {
		if err := apply(db, fsys, scripts[i], i+1); err != nil {
			return fmt.Errorf("apply %s: %w", scripts[i], err)
		}
		logrus.WithField("migration", scripts[i]).Debug("applied migration")
	}
	return nil
}

func apply(db *sql.DB, fsys fs.FS, name string, version int) error {
	script, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(script)); err != nil {
		return err
	}
	// PRAGMA does not accept bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return err
	}
	return tx.Commit()
}
