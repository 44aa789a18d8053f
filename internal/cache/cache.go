// Package cache is the SQLite-backed beat-detection cache: detecting
// beats is the one genuinely expensive, non-deterministic-latency step
// in the pipeline (an external process or model inference), so
// framebeat keys a cache entry by the audio file's content hash and
// skips re-detection on repeat renders of the same track. The schema
// version rides in sqlite's user_version pragma; migration DDL ships
// as numbered .sql files embedded in the binary, one transaction per
// version step.
package cache

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the beat-cache's SQLite connection.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if absent) the cache database under dataDir
// and brings its schema up to date.
func Open(dataDir string, logger *slog.Logger) (*DB, error) {
	dbPath := filepath.Join(dataDir, "framebeat-cache.db")

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	d := &DB{db: conn, logger: logger}
	if err := d.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}
	return d, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error { return d.db.Close() }

// migrate walks the schema forward from the database's current
// user_version, one embedded migration file per step. The DDL and the
// version bump commit together, so a failed step leaves the version
// (and the schema) exactly where it was.
func (d *DB) migrate() error {
	var have int
	if err := d.db.QueryRow("PRAGMA user_version").Scan(&have); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for next := have + 1; ; next++ {
		matches, err := fs.Glob(migrationsFS, fmt.Sprintf("migrations/%03d_*.sql", next))
		if err != nil {
			return fmt.Errorf("locate migration %d: %w", next, err)
		}
		if len(matches) == 0 {
			return nil // schema is current
		}

		ddl, err := migrationsFS.ReadFile(matches[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", matches[0], err)
		}

		tx, err := d.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		if _, err := tx.Exec(string(ddl)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply %s: %w", matches[0], err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", next)); err != nil {
			tx.Rollback()
			return fmt.Errorf("bump schema version to %d: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", next, err)
		}

		if d.logger != nil {
			d.logger.Info("cache schema upgraded", "version", next, "file", matches[0])
		}
	}
}
