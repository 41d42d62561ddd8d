// Package sqlite provides the durable replica store shared between
// registry peers.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// schema is applied at open. A single table keyed by definition id;
// peers upsert rows and pull back entries they have not seen locally.
const schema = `
CREATE TABLE IF NOT EXISTS definitions (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	pattern TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	evaluation_order INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_definitions_name ON definitions(name);
`

// DB wraps the replica store connection.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the replica store at path and
// ensures the schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening replica store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying replica store schema: %w", err)
	}
	return &DB{db: db}, nil
}

// DefinitionStore returns the definitions repository.
func (d *DB) DefinitionStore() *DefinitionStore {
	return newDefinitionStore(d.db)
}

// Close releases the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
