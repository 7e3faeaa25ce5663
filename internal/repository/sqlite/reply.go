package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/whispering-network/internal/model"
)

// CreateReply inserts a reply. The foreign key on message_id rejects replies
// to messages that do not exist; classify turns that into a validation error.
func (db *DB) CreateReply(ctx context.Context, r *model.Reply) (err error) {
	defer observe("create_reply", time.Now(), &err)

	r.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO replies (message_id, content, nickname, created_at)
		 VALUES (?, ?, ?, ?)`,
		r.MessageID,
		r.Content,
		r.Nickname,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating reply: %w", classify(err))
	}

	r.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading reply id: %w", err)
	}
	return nil
}

// ListReplies returns every reply to a message, newest first.
// An unknown message id yields an empty slice, not an error.
func (db *DB) ListReplies(ctx context.Context, messageID int64) (_ []model.Reply, err error) {
	defer observe("list_replies", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, message_id, content, nickname, created_at
		 FROM replies
		 WHERE message_id = ?
		 ORDER BY created_at DESC, id DESC`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing replies for message %d: %w", messageID, err)
	}
	defer rows.Close()

	replies := make([]model.Reply, 0)
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating replies: %w", err)
	}
	return replies, nil
}

func scanReply(s scanner) (model.Reply, error) {
	var r model.Reply
	if err := s.Scan(&r.ID, &r.MessageID, &r.Content, &r.Nickname, &r.CreatedAt); err != nil {
		return r, fmt.Errorf("sqlite: scanning reply row: %w", err)
	}
	return r, nil
}
