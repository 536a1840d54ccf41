// Package store provides the on-device chat-history store.
//
// Threads are kept as individual rows in a local SQLite database rather than
// as one serialized blob, so concurrent saves of different threads cannot
// lose each other's writes. The connection pool is capped at a single
// connection, which serializes all mutations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hexchat/chat-sync/internal/model"
)

// Store is the local keyed thread store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the store at path.
func Open(path string) (*Store, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("missing store path")
	}
	p = filepath.Clean(p)
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS threads (
			id                TEXT PRIMARY KEY,
			title             TEXT NOT NULL DEFAULT '',
			favorite          INTEGER NOT NULL DEFAULT 0,
			pinned            INTEGER NOT NULL DEFAULT 0,
			uuid              TEXT NOT NULL DEFAULT '',
			timestamp_unix_ms INTEGER NOT NULL DEFAULT 0,
			messages_json     TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_threads_order ON threads(pinned DESC, timestamp_unix_ms DESC)`,
		`PRAGMA user_version = 1`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveOptions carries optional fields for Save. Title and UUID are applied
// only when non-empty; existing values are otherwise preserved.
type SaveOptions struct {
	Title     string
	UUID      string
	Timestamp int64 // unix ms; required
}

// Save upserts the thread's messages and timestamp, preserving existing
// title/favorite/pinned/uuid unless explicitly provided. UUID is only ever
// set, never cleared or replaced.
func (s *Store) Save(ctx context.Context, id string, messages []model.Message, opts SaveOptions) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("missing thread id")
	}
	if messages == nil {
		messages = []model.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO threads(id, title, uuid, timestamp_unix_ms, messages_json)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  messages_json     = excluded.messages_json,
  timestamp_unix_ms = excluded.timestamp_unix_ms,
  title             = CASE WHEN excluded.title <> '' THEN excluded.title ELSE threads.title END,
  uuid              = CASE WHEN threads.uuid = '' THEN excluded.uuid ELSE threads.uuid END
`, id, opts.Title, opts.UUID, opts.Timestamp, string(raw))
	if err != nil {
		return fmt.Errorf("save thread %s: %w", id, err)
	}
	return nil
}

// Get returns the thread, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id string) (*model.Thread, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, favorite, pinned, uuid, timestamp_unix_ms, messages_json
FROM threads WHERE id = ?`, strings.TrimSpace(id))

	t, err := scanThread(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// Load returns the entire store as a mapping. An empty store yields an
// empty, non-nil mapping.
func (s *Store) Load(ctx context.Context) (map[string]model.Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, favorite, pinned, uuid, timestamp_unix_ms, messages_json
FROM threads`)
	if err != nil {
		return nil, fmt.Errorf("load threads: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.Thread)
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out[t.ID] = *t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the thread and returns the resulting full mapping so
// callers can refresh their view without a second read. Deleting an absent
// id is not an error.
func (s *Store) Delete(ctx context.Context, id string) (map[string]model.Thread, error) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, strings.TrimSpace(id)); err != nil {
		return nil, fmt.Errorf("delete thread %s: %w", id, err)
	}
	return s.Load(ctx)
}

// SetTitle renames the thread. No-op when the id is absent.
func (s *Store) SetTitle(ctx context.Context, id, title string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE threads SET title = ? WHERE id = ?`, title, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("set title %s: %w", id, err)
	}
	return nil
}

// SetFavorite sets the favorite flag. No-op when the id is absent.
func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE threads SET favorite = ? WHERE id = ?`, boolInt(favorite), strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("set favorite %s: %w", id, err)
	}
	return nil
}

// SetPinned sets the pinned flag. No-op when the id is absent.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE threads SET pinned = ? WHERE id = ?`, boolInt(pinned), strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("set pinned %s: %w", id, err)
	}
	return nil
}

// SetUUID records the thread's share identifier. The identifier is
// set-once: a thread that already has one keeps it.
func (s *Store) SetUUID(ctx context.Context, id, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.New("missing uuid")
	}
	_, err := s.db.ExecContext(ctx, `UPDATE threads SET uuid = ? WHERE id = ? AND uuid = ''`, uid, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("set uuid %s: %w", id, err)
	}
	return nil
}

// Replace swaps the entire store contents for the given mapping in a single
// transaction. Used to persist a merge result wholesale.
func (s *Store) Replace(ctx context.Context, threads map[string]model.Thread) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM threads`); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	for id, t := range threads {
		raw, err := json.Marshal(t.Messages)
		if err != nil {
			return fmt.Errorf("replace: marshal %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO threads(id, title, favorite, pinned, uuid, timestamp_unix_ms, messages_json)
VALUES(?, ?, ?, ?, ?, ?, ?)`,
			id, t.Title, boolInt(t.Favorite), boolInt(t.Pinned), t.UUID, t.Timestamp, string(raw)); err != nil {
			return fmt.Errorf("replace: insert %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return nil
}

// ClearAll drops the entire store.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM threads`); err != nil {
		return fmt.Errorf("clear all: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(r rowScanner) (*model.Thread, error) {
	var (
		t        model.Thread
		favorite int
		pinned   int
		rawMsgs  string
	)
	if err := r.Scan(&t.ID, &t.Title, &favorite, &pinned, &t.UUID, &t.Timestamp, &rawMsgs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rawMsgs), &t.Messages); err != nil {
		return nil, fmt.Errorf("decode messages for %s: %w", t.ID, err)
	}
	t.Favorite = favorite != 0
	t.Pinned = pinned != 0
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
