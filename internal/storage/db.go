// Package storage provides the sqlite-backed ingest journal.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/UKHO/kluster/internal/logging"
)

// DB represents the journal database connection
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the journal database at <root>/.kluster/intel.db
func Open(root string, logger *logging.Logger) (*DB, error) {
	dir := filepath.Join(root, ".kluster")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .kluster directory: %w", err)
	}

	dbPath := filepath.Join(dir, "intel.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	db := &DB{conn: conn, logger: logger, dbPath: dbPath}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func (db *DB) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS file_records (
	path        TEXT PRIMARY KEY,
	file_name   TEXT NOT NULL,
	category    TEXT NOT NULL,
	format_type TEXT NOT NULL,
	size_kb     REAL NOT NULL,
	modified_at INTEGER NOT NULL,
	created_at  INTEGER NOT NULL,
	added_at    INTEGER NOT NULL,
	unique_id   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_file_records_category ON file_records(category);

CREATE TABLE IF NOT EXISTS action_log (
	id          TEXT PRIMARY KEY,
	action_type TEXT NOT NULL,
	destination TEXT NOT NULL,
	executed_at INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL,
	error       TEXT
);

CREATE TABLE IF NOT EXISTS intel_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the on-disk path of the journal database
func (db *DB) Path() string {
	return db.dbPath
}

// WithTx executes fn within a transaction, rolling back on error
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to rollback transaction", map[string]interface{}{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
