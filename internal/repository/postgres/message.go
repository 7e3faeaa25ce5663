package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/model"
	"github.com/sakif/whispering-network/internal/repository"
)

const messageColumns = `id, content, category, spotify_link, is_public, recipient, sender_name, created_at`

// CreateMessage inserts m and fills in its ID and CreatedAt.
func (s *Store) CreateMessage(ctx context.Context, m *model.Message) (err error) {
	defer observe("create_message", time.Now(), &err)

	m.CreatedAt = time.Now().UTC()

	sql := `insert into messages (content, category, spotify_link, is_public, recipient, sender_name, created_at)
		values ($1, $2, $3, $4, $5, $6, $7) returning id`
	err = s.db.QueryRow(ctx, sql,
		m.Content, m.Category, m.SpotifyLink, m.IsPublic, m.Recipient, m.SenderName, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("postgres: creating message: %w", classify(err))
	}

	s.logger.Debug("created message", "id", m.ID, "public", m.IsPublic)
	return nil
}

// ListMessages returns matching messages newest first with their replies
// nested newest first. Replies are loaded with one query per call.
func (s *Store) ListMessages(ctx context.Context, f repository.MessageFilter) (_ []model.MessageWithReplies, err error) {
	defer observe("list_messages", time.Now(), &err)

	where, args := filterClause(f)

	rows, err := s.db.Query(ctx,
		`select `+messageColumns+` from messages`+where+` order by created_at desc, id desc`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.MessageWithReplies, 0)
	index := make(map[int64]int)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		index[m.ID] = len(messages)
		messages = append(messages, model.MessageWithReplies{Message: m, Replies: []model.Reply{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating messages: %w", err)
	}
	if len(messages) == 0 {
		return messages, nil
	}

	ids := make([]int64, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}

	replyRows, err := s.db.Query(ctx,
		`select id, message_id, content, nickname, created_at
		from replies
		where message_id = any($1)
		order by created_at desc, id desc`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing replies: %w", err)
	}
	defer replyRows.Close()

	for replyRows.Next() {
		r, err := scanReply(replyRows)
		if err != nil {
			return nil, err
		}
		i := index[r.MessageID]
		messages[i].Replies = append(messages[i].Replies, r)
	}
	if err := replyRows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating replies: %w", err)
	}
	return messages, nil
}

// SetMessageVisibility returns apperror.ErrNotFound when id does not exist.
func (s *Store) SetMessageVisibility(ctx context.Context, id int64, isPublic bool) (_ *model.Message, err error) {
	defer observe("set_message_visibility", time.Now(), &err)

	row := s.db.QueryRow(ctx,
		`update messages set is_public = $1 where id = $2 returning `+messageColumns,
		isPublic, id,
	)
	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("message", id)
		}
		return nil, fmt.Errorf("postgres: updating message %d: %w", id, err)
	}
	return &m, nil
}

func filterClause(f repository.MessageFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(col string, v any) {
		args = append(args, v)
		conds = append(conds, col+" = $"+strconv.Itoa(len(args)))
	}
	if f.IsPublic != nil {
		add("is_public", *f.IsPublic)
	}
	if f.Category != nil {
		add("category", *f.Category)
	}
	if f.Recipient != nil {
		add("recipient", *f.Recipient)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " where " + strings.Join(conds, " and "), args
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var m model.Message
	err := row.Scan(
		&m.ID,
		&m.Content,
		&m.Category,
		&m.SpotifyLink,
		&m.IsPublic,
		&m.Recipient,
		&m.SenderName,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("postgres: scanning message row: %w", err)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}
