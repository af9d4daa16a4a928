package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"aufseher/internal/model"
	"aufseher/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// RecordAction appends an enforcement run and populates its ID and CreatedAt.
func (s *SQLite) RecordAction(ctx context.Context, a *model.Action) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO actions (chat_id, chat_title, user_id, user_name, message_id, surface, source,
		                      rule, normalized, deleted, banned, notified, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ChatID, a.ChatTitle, a.UserID, a.UserName, a.MessageID, string(a.Surface), string(a.Source),
		a.Rule, boolToInt(a.Normalized), boolToInt(a.Deleted), boolToInt(a.Banned), boolToInt(a.Notified),
		a.Error, now,
	)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListActions returns the most recent actions, newest first. A zero chatID
// lists actions across all chats.
func (s *SQLite) ListActions(ctx context.Context, chatID int64, limit int) ([]model.Action, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, chat_title, user_id, user_name, message_id, surface, source,
		        rule, normalized, deleted, banned, notified, error, created_at
		 FROM actions
		 WHERE ? = 0 OR chat_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		chatID, chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var actions []model.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// PruneActions deletes actions recorded before the given time and returns
// how many were removed.
func (s *SQLite) PruneActions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM actions WHERE created_at < ?`,
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune actions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAction(row scannable) (model.Action, error) {
	var a model.Action
	var surface, source, created string
	var normalized, deleted, banned, notified int
	err := row.Scan(&a.ID, &a.ChatID, &a.ChatTitle, &a.UserID, &a.UserName, &a.MessageID,
		&surface, &source, &a.Rule, &normalized, &deleted, &banned, &notified, &a.Error, &created)
	if err != nil {
		return a, fmt.Errorf("scan action: %w", err)
	}
	a.Surface = model.SurfaceKind(surface)
	a.Source = model.VerdictSource(source)
	a.Normalized = normalized == 1
	a.Deleted = deleted == 1
	a.Banned = banned == 1
	a.Notified = notified == 1
	a.CreatedAt, _ = time.Parse(timeLayout, created)
	return a, nil
}
