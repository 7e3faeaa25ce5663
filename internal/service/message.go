// Package service contains the business rules of the board.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)       → parses requests, writes responses
//	Service (business)   → normalises input, enforces rules, logs events
//	Repository (storage) → reads/writes the record store
//
// Services take repository interfaces, never a concrete store, so the same
// code runs on SQLite, on Postgres, and against the in-memory fakes in the
// tests. They return apperror values and know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/metrics"
	"github.com/sakif/whispering-network/internal/model"
	"github.com/sakif/whispering-network/internal/repository"
)

// CreateMessageInput is the caller-supplied part of a new message.
// Nil pointers mean "not provided".
type CreateMessageInput struct {
	Content     string
	Category    string
	SpotifyLink *string
	IsPublic    *bool
	Recipient   *string
	SenderName  *string
}

// CreateReplyInput is the caller-supplied part of a new reply.
type CreateReplyInput struct {
	MessageID int64
	Content   string
	Nickname  string
}

// MessageService handles messages and their replies.
type MessageService struct {
	messages repository.MessageRepository
	replies  repository.ReplyRepository
	logger   *slog.Logger
}

func NewMessageService(messages repository.MessageRepository, replies repository.ReplyRepository, logger *slog.Logger) *MessageService {
	return &MessageService{
		messages: messages,
		replies:  replies,
		logger:   logger,
	}
}

// Create stores a new message. Content and category are trimmed and must not
// be empty; blank optional fields are stored as absent; IsPublic defaults to
// true.
func (s *MessageService) Create(ctx context.Context, in CreateMessageInput) (*model.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, apperror.ValidationFailed("category", "category is required")
	}

	m := &model.Message{
		Content:     content,
		Category:    category,
		SpotifyLink: optional(in.SpotifyLink),
		IsPublic:    true,
		Recipient:   optional(in.Recipient),
		SenderName:  optional(in.SenderName),
	}
	if in.IsPublic != nil {
		m.IsPublic = *in.IsPublic
	}

	if err := s.messages.CreateMessage(ctx, m); err != nil {
		s.logger.Error("failed to create message",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating message: %w", err)
	}

	metrics.RecordMessageCreated(m.IsPublic)
	s.logger.Info("message created",
		slog.Int64("id", m.ID),
		slog.String("category", m.Category),
		slog.Bool("public", m.IsPublic),
	)
	return m, nil
}

func (s *MessageService) ListPublic(ctx context.Context) ([]model.MessageWithReplies, error) {
	public := true
	return s.list(ctx, "public", repository.MessageFilter{IsPublic: &public})
}

func (s *MessageService) ListPrivate(ctx context.Context) ([]model.MessageWithReplies, error) {
	public := false
	return s.list(ctx, "private", repository.MessageFilter{IsPublic: &public})
}

// ListByCategory matches category exactly; no trimming or case folding.
func (s *MessageService) ListByCategory(ctx context.Context, category string) ([]model.MessageWithReplies, error) {
	return s.list(ctx, "category", repository.MessageFilter{Category: &category})
}

// ListByRecipient matches recipient exactly.
func (s *MessageService) ListByRecipient(ctx context.Context, recipient string) ([]model.MessageWithReplies, error) {
	return s.list(ctx, "recipient", repository.MessageFilter{Recipient: &recipient})
}

func (s *MessageService) list(ctx context.Context, scope string, f repository.MessageFilter) ([]model.MessageWithReplies, error) {
	messages, err := s.messages.ListMessages(ctx, f)
	if err != nil {
		s.logger.Error("failed to list messages",
			slog.String("scope", scope),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing %s messages: %w", scope, err)
	}
	return messages, nil
}

// SetVisibility sets isPublic on message id and returns the updated message.
// Setting the current value again is a no-op that still succeeds.
func (s *MessageService) SetVisibility(ctx context.Context, id int64, isPublic bool) (*model.Message, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "id must be a positive number")
	}

	m, err := s.messages.SetMessageVisibility(ctx, id, isPublic)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update message visibility",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating message visibility: %w", err)
	}

	metrics.RecordVisibilityChange(isPublic)
	s.logger.Info("message visibility updated",
		slog.Int64("id", id),
		slog.Bool("public", isPublic),
	)
	return m, nil
}

// CreateReply attaches a reply to an existing message. A messageId that does
// not reference a message is rejected by the store as a validation error.
func (s *MessageService) CreateReply(ctx context.Context, in CreateReplyInput) (*model.Reply, error) {
	if in.MessageID <= 0 {
		return nil, apperror.ValidationFailed("messageId", "messageId must be a positive number")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		return nil, apperror.ValidationFailed("nickname", "nickname is required")
	}

	r := &model.Reply{
		MessageID: in.MessageID,
		Content:   content,
		Nickname:  nickname,
	}
	if err := s.replies.CreateReply(ctx, r); err != nil {
		// An unknown messageId surfaces as a validation error from the store.
		if errors.Is(err, apperror.ErrValidation) {
			return nil, err
		}
		s.logger.Error("failed to create reply",
			slog.Int64("message_id", in.MessageID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating reply: %w", err)
	}

	metrics.RecordReplyCreated()
	s.logger.Info("reply created",
		slog.Int64("id", r.ID),
		slog.Int64("message_id", r.MessageID),
	)
	return r, nil
}

// ListReplies returns the replies to one message, newest first.
func (s *MessageService) ListReplies(ctx context.Context, messageID int64) ([]model.Reply, error) {
	if messageID <= 0 {
		return nil, apperror.ValidationFailed("id", "id must be a positive number")
	}
	replies, err := s.replies.ListReplies(ctx, messageID)
	if err != nil {
		s.logger.Error("failed to list replies",
			slog.Int64("message_id", messageID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing replies: %w", err)
	}
	return replies, nil
}

// optional trims s and maps empty to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
