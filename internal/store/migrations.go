package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQLite      string
	Postgres    string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "users: memory owners",
		SQLite: `
CREATE TABLE users (
    id          TEXT PRIMARY KEY,
    login       TEXT NOT NULL DEFAULT '',
    name        TEXT NOT NULL DEFAULT '',
    avatar_url  TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL
);
`,
		Postgres: `
CREATE TABLE users (
    id          TEXT PRIMARY KEY,
    login       TEXT NOT NULL DEFAULT '',
    name        TEXT NOT NULL DEFAULT '',
    avatar_url  TEXT NOT NULL DEFAULT '',
    created_at  BIGINT NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "memories: journal entries with cover assets",
		SQLite: `
CREATE TABLE memories (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    content     TEXT NOT NULL,
    cover_url   TEXT NOT NULL,
    cover_type  TEXT NOT NULL CHECK (cover_type IN ('gif', 'jpg', 'jpeg', 'png', 'mpg', 'mp2', 'mpeg', 'mpe', 'mpv', 'mp4')),
    is_public   INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,

    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX idx_memories_user_created ON memories(user_id, created_at);
`,
		Postgres: `
CREATE TABLE memories (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES users(id),
    content     TEXT NOT NULL,
    cover_url   TEXT NOT NULL,
    cover_type  TEXT NOT NULL CHECK (cover_type IN ('gif', 'jpg', 'jpeg', 'png', 'mpg', 'mp2', 'mpeg', 'mpe', 'mpv', 'mp4')),
    is_public   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  BIGINT NOT NULL,
    seq         BIGSERIAL
);

CREATE INDEX idx_memories_user_created ON memories(user_id, created_at);
`,
	},
}

func (m migration) sql(driver string) string {
	if driver == DriverPostgres {
		return m.Postgres
	}
	return m.SQLite
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow(db.rebind("SELECT COUNT(*) FROM schema_versions WHERE version = ?"), m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.sql(db.Driver)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			db.rebind("INSERT INTO schema_versions (version, description, applied_at) VALUES (?, ?, ?)"),
			m.Version, m.Description, nowMillis(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
