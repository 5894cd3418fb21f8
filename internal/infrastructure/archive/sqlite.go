// Package archive keeps an audit trail of posted replies in sqlite.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ReplyBot/internal/domain"
	"ReplyBot/internal/ports"
)

const schema = `CREATE TABLE IF NOT EXISTS replies (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    in_reply_to_id TEXT NOT NULL,
    author_handle  TEXT NOT NULL DEFAULT '',
    reply_id       TEXT NOT NULL DEFAULT '',
    reply_text     TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteArchive persists posted replies for audit and debugging.
type SQLiteArchive struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ports.ReplyArchive = (*SQLiteArchive)(nil)

// New opens (or creates) the archive database at path.
func New(path string, logger *slog.Logger) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open reply archive: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure replies table: %w", err)
	}

	logger.Info("reply archive ready", "path", path)
	return &SQLiteArchive{db: db, logger: logger}, nil
}

// RecordReply inserts one posted reply.
func (a *SQLiteArchive) RecordReply(ctx context.Context, rec domain.ReplyRecord) error {
	query, args, err := sq.Insert("replies").
		Columns("in_reply_to_id", "author_handle", "reply_id", "reply_text").
		Values(rec.InReplyToID, rec.AuthorHandle, rec.ReplyID, rec.Text).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reply: %w", err)
	}
	return nil
}

// Recent returns the latest recorded replies, newest first.
func (a *SQLiteArchive) Recent(ctx context.Context, limit int) ([]domain.ReplyRecord, error) {
	query, args, err := sq.Select("in_reply_to_id", "author_handle", "reply_id", "reply_text").
		From("replies").
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	defer rows.Close()

	var records []domain.ReplyRecord
	for rows.Next() {
		var rec domain.ReplyRecord
		if err := rows.Scan(&rec.InReplyToID, &rec.AuthorHandle, &rec.ReplyID, &rec.Text); err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// Close releases the underlying database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
