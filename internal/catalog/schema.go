// Package catalog mirrors the aggregate indexes into SQLite for tag, link
// and full-text queries, with optional FTS5 support.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	folder  TEXT NOT NULL,
	path    TEXT NOT NULL,
	slug    TEXT NOT NULL DEFAULT '',
	title   TEXT NOT NULL DEFAULT '',
	preview TEXT NOT NULL DEFAULT '',
	tags    TEXT NOT NULL DEFAULT '[]',
	body    TEXT NOT NULL DEFAULT '',
	mtime   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (folder, path)
);

CREATE TABLE IF NOT EXISTS record_tags (
	folder TEXT NOT NULL,
	tag    TEXT NOT NULL,
	path   TEXT NOT NULL,
	UNIQUE(folder, tag, path)
);

CREATE TABLE IF NOT EXISTS links (
	folder TEXT NOT NULL,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	UNIQUE(folder, source, target)
);

CREATE INDEX IF NOT EXISTS idx_record_tags_tag ON record_tags(tag);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
