package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/sakif/whispering-network/internal/model"
)

// CreateReply inserts r. A messageId with no parent message is reported as a
// validation error on messageId.
func (s *Store) CreateReply(ctx context.Context, r *model.Reply) (err error) {
	defer observe("create_reply", time.Now(), &err)

	r.CreatedAt = time.Now().UTC()

	sql := `insert into replies (message_id, content, nickname, created_at)
		values ($1, $2, $3, $4) returning id`
	err = s.db.QueryRow(ctx, sql, r.MessageID, r.Content, r.Nickname, r.CreatedAt).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("postgres: creating reply: %w", classify(err))
	}
	return nil
}

func (s *Store) ListReplies(ctx context.Context, messageID int64) (_ []model.Reply, err error) {
	defer observe("list_replies", time.Now(), &err)

	rows, err := s.db.Query(ctx,
		`select id, message_id, content, nickname, created_at
		from replies
		where message_id = $1
		order by created_at desc, id desc`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing replies for message %d: %w", messageID, err)
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
		return nil, fmt.Errorf("postgres: iterating replies: %w", err)
	}
	return replies, nil
}

func scanReply(row pgx.Row) (model.Reply, error) {
	var r model.Reply
	if err := row.Scan(&r.ID, &r.MessageID, &r.Content, &r.Nickname, &r.CreatedAt); err != nil {
		return r, fmt.Errorf("postgres: scanning reply row: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}
