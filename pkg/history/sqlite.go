// Package history keeps a local SQLite transcript of chat sessions. It only
// records what this client saw on its own streams; the knowledge base itself
// lives on the server.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/kbconsole/pkg/chat"
	"github.com/papercomputeco/kbconsole/pkg/stream"
)

// Summary describes a stored session without its messages.
type Summary struct {
	ID           string
	Title        string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store is a SQLite-backed session history.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database at dbPath.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		remote_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		sources TEXT,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, position);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save writes the session and replaces its stored messages. Messages still
// streaming are not saved.
func (s *Store) Save(ctx context.Context, session *chat.Session) error {
	if session == nil {
		return errors.New("cannot store nil session")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	created := now
	if len(session.Messages) > 0 {
		created = session.Messages[0].CreatedAt.UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, remote_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			remote_id = excluded.remote_id,
			title = excluded.title,
			updated_at = excluded.updated_at`,
		session.ID, session.RemoteID, session.Title(), created, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, session_id, position, role, content, sources, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range session.Messages {
		if m.IsStreaming {
			continue
		}

		var sources sql.NullString
		if len(m.Sources) > 0 {
			data, err := json.Marshal(m.Sources)
			if err != nil {
				return fmt.Errorf("failed to marshal sources: %w", err)
			}
			sources = sql.NullString{String: string(data), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, m.ID, session.ID, i, string(m.Role), m.Content, sources, m.Error, m.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	return tx.Commit()
}

// List returns stored sessions, most recently updated first. A limit of zero
// returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	query := `
		SELECT s.id, s.title, s.created_at, s.updated_at, COUNT(m.id)
		FROM sessions s
		LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.updated_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.CreatedAt, &sum.UpdatedAt, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get loads a session by id or unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (*chat.Session, error) {
	fullID, remoteID, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, sources, error, created_at
		FROM messages WHERE session_id = ? ORDER BY position`, fullID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*chat.Message
	for rows.Next() {
		var (
			m       chat.Message
			role    string
			sources sql.NullString
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &sources, &m.Error, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = chat.Role(role)
		if sources.Valid {
			var src []stream.Source
			if err := json.Unmarshal([]byte(sources.String), &src); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
			}
			m.Sources = src
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return chat.Restore(fullID, remoteID, messages), nil
}

// Delete removes a session and its messages.
func (s *Store) Delete(ctx context.Context, id string) error {
	fullID, _, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, fullID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) resolve(ctx context.Context, id string) (string, string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", ErrNotFound{}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, remote_id FROM sessions
		WHERE id = ? OR id LIKE ? ESCAPE '\'
		ORDER BY id = ? DESC LIMIT 2`,
		id, escapeLike(id)+"%", id,
	)
	if err != nil {
		return "", "", fmt.Errorf("failed to query session: %w", err)
	}
	defer rows.Close()

	var ids, remotes []string
	for rows.Next() {
		var full, remote string
		if err := rows.Scan(&full, &remote); err != nil {
			return "", "", fmt.Errorf("failed to scan session: %w", err)
		}
		if full == id {
			return full, remote, nil
		}
		ids = append(ids, full)
		remotes = append(remotes, remote)
	}
	if err := rows.Err(); err != nil {
		return "", "", err
	}

	switch len(ids) {
	case 0:
		return "", "", ErrNotFound{ID: id}
	case 1:
		return ids[0], remotes[0], nil
	}
	return "", "", ErrAmbiguous{Prefix: id, Matches: len(ids)}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
