package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lazypower/spacetime/internal/memory"
)

const memoryColumns = `id, user_id, content, cover_url, cover_type, is_public, created_at`

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// insertionOrder breaks created_at ties by insertion order.
func (db *DB) insertionOrder() string {
	if db.Driver == DriverPostgres {
		return "seq"
	}
	return "rowid"
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(row scanner, extra ...any) (memory.Record, error) {
	var rec memory.Record
	var coverType string
	var createdAt int64
	dest := append([]any{&rec.ID, &rec.UserID, &rec.Content, &rec.CoverURL, &coverType, &rec.IsPublic, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return rec, err
	}
	rec.CoverType = memory.CoverType(coverType)
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

// CreateMemory inserts a memory. ID and CreatedAt must already be set.
func (db *DB) CreateMemory(ctx context.Context, rec *memory.Record) error {
	_, err := db.ExecContext(ctx, db.rebind(`
		INSERT INTO memories (`+memoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), rec.ID, rec.UserID, rec.Content, rec.CoverURL, string(rec.CoverType), rec.IsPublic, rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// GetMemory returns a memory by id, or nil if not found.
func (db *DB) GetMemory(ctx context.Context, id string) (*memory.Record, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+memoryColumns+` FROM memories WHERE id = ?`), id)
	rec, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return &rec, nil
}

// GetMemoryWithOwner returns a memory with its owner loaded, or nil if not
// found. User is nil when the owner row is missing.
func (db *DB) GetMemoryWithOwner(ctx context.Context, id string) (*memory.Record, error) {
	var uid, login, name, avatar sql.NullString
	row := db.QueryRowContext(ctx, db.rebind(`
		SELECT m.id, m.user_id, m.content, m.cover_url, m.cover_type, m.is_public, m.created_at,
			u.id, u.login, u.name, u.avatar_url
		FROM memories m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.id = ?
	`), id)
	rec, err := scanMemory(row, &uid, &login, &name, &avatar)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory with owner: %w", err)
	}
	if uid.Valid {
		rec.User = &memory.User{
			ID:        uid.String,
			Login:     login.String,
			Name:      name.String,
			AvatarURL: avatar.String,
		}
	}
	return &rec, nil
}

// ListMemoriesByUser returns a user's memories ordered by created_at ASC.
func (db *DB) ListMemoriesByUser(ctx context.Context, userID string) ([]memory.Record, error) {
	rows, err := db.QueryContext(ctx, db.rebind(`
		SELECT `+memoryColumns+` FROM memories
		WHERE user_id = ?
		ORDER BY created_at ASC, `+db.insertionOrder()+` ASC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var recs []memory.Record
	for rows.Next() {
		rec, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// UpdateMemory replaces the mutable fields of a memory. id, user_id and
// created_at are never written.
func (db *DB) UpdateMemory(ctx context.Context, rec *memory.Record) error {
	result, err := db.ExecContext(ctx, db.rebind(`
		UPDATE memories SET content = ?, cover_url = ?, cover_type = ?, is_public = ?
		WHERE id = ?
	`), rec.Content, rec.CoverURL, string(rec.CoverType), rec.IsPublic, rec.ID)
	if err != nil {
		return fmt.Errorf("update memory: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update memory %s: %w", rec.ID, memory.ErrNotFound)
	}
	return nil
}

// DeleteMemory removes a memory.
func (db *DB) DeleteMemory(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, db.rebind(`DELETE FROM memories WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("delete memory %s: %w", id, memory.ErrNotFound)
	}
	return nil
}

// CoverURLs returns the cover URL of every stored memory.
func (db *DB) CoverURLs(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT cover_url FROM memories`)
	if err != nil {
		return nil, fmt.Errorf("list cover urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan cover url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// UpsertUser creates a user or refreshes its profile fields. Empty incoming
// fields keep the stored value.
func (db *DB) UpsertUser(ctx context.Context, u memory.User) error {
	_, err := db.ExecContext(ctx, db.rebind(`
		INSERT INTO users (id, login, name, avatar_url, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			login = COALESCE(NULLIF(excluded.login, ''), users.login),
			name = COALESCE(NULLIF(excluded.name, ''), users.name),
			avatar_url = COALESCE(NULLIF(excluded.avatar_url, ''), users.avatar_url)
	`), u.ID, u.Login, u.Name, u.AvatarURL, nowMillis())
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUser returns a user by id, or nil if not found.
func (db *DB) GetUser(ctx context.Context, id string) (*memory.User, error) {
	var u memory.User
	err := db.QueryRowContext(ctx, db.rebind(`SELECT id, login, name, avatar_url FROM users WHERE id = ?`), id).
		Scan(&u.ID, &u.Login, &u.Name, &u.AvatarURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

var _ memory.Repository = (*DB)(nil)
