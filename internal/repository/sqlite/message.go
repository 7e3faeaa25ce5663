package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/model"
	"github.com/sakif/whispering-network/internal/repository"
)

const messageColumns = `id, content, category, spotify_link, is_public, recipient, sender_name, created_at`

// CreateMessage inserts a new message and fills in m.ID and m.CreatedAt.
//
// The ID comes from SQLite's AUTOINCREMENT via LastInsertId; the timestamp
// is set here in UTC so that every row sorts on the same clock.
func (db *DB) CreateMessage(ctx context.Context, m *model.Message) (err error) {
	defer observe("create_message", time.Now(), &err)

	m.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO messages (content, category, spotify_link, is_public, recipient, sender_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Content,
		m.Category,
		nullString(m.SpotifyLink),
		m.IsPublic,
		nullString(m.Recipient),
		nullString(m.SenderName),
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating message: %w", classify(err))
	}

	m.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading message id: %w", err)
	}
	return nil
}

// ListMessages returns the messages matching f, newest first, with their
// replies nested newest first.
//
// TWO QUERIES, NOT N+1:
// The replies of every selected message are fetched with one query that
// reuses the same WHERE clause as a subquery, then grouped in Go.
func (db *DB) ListMessages(ctx context.Context, f repository.MessageFilter) (_ []model.MessageWithReplies, err error) {
	defer observe("list_messages", time.Now(), &err)

	where, args := filterClause(f)

	messages, err := db.queryMessages(ctx, where, args)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return messages, nil
	}

	// queryMessages has closed its rows, so the single connection is free.
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, message_id, content, nickname, created_at
		 FROM replies
		 WHERE message_id IN (SELECT id FROM messages`+where+`)
		 ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing replies: %w", err)
	}
	defer rows.Close()

	byMessage := make(map[int64][]model.Reply, len(messages))
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		byMessage[r.MessageID] = append(byMessage[r.MessageID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating replies: %w", err)
	}

	for i := range messages {
		if replies, ok := byMessage[messages[i].ID]; ok {
			messages[i].Replies = replies
		}
	}
	return messages, nil
}

func (db *DB) queryMessages(ctx context.Context, where string, args []any) ([]model.MessageWithReplies, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages`+where+` ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.MessageWithReplies, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, model.MessageWithReplies{Message: m, Replies: []model.Reply{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}
	return messages, nil
}

// SetMessageVisibility flips is_public and returns the updated message.
// UPDATE ... RETURNING gives us the row back in one round trip; no row
// means the id does not exist.
func (db *DB) SetMessageVisibility(ctx context.Context, id int64, isPublic bool) (_ *model.Message, err error) {
	defer observe("set_message_visibility", time.Now(), &err)

	row := db.conn.QueryRowContext(ctx,
		`UPDATE messages SET is_public = ? WHERE id = ? RETURNING `+messageColumns,
		isPublic, id,
	)
	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("message", id)
		}
		return nil, fmt.Errorf("sqlite: updating message %d: %w", id, err)
	}
	return &m, nil
}

// filterClause builds the WHERE clause for f. It returns "" when f selects
// every message.
func filterClause(f repository.MessageFilter) (string, []any) {
	var conds []string
	var args []any

	if f.IsPublic != nil {
		conds = append(conds, "is_public = ?")
		args = append(args, *f.IsPublic)
	}
	if f.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, *f.Category)
	}
	if f.Recipient != nil {
		conds = append(conds, "recipient = ?")
		args = append(args, *f.Recipient)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (model.Message, error) {
	var (
		m                           model.Message
		link, recipient, senderName sql.NullString
	)
	err := s.Scan(
		&m.ID,
		&m.Content,
		&m.Category,
		&link,
		&m.IsPublic,
		&recipient,
		&senderName,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("sqlite: scanning message row: %w", err)
	}
	m.SpotifyLink = stringPtr(link)
	m.Recipient = stringPtr(recipient)
	m.SenderName = stringPtr(senderName)
	return m, nil
}
