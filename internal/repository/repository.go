// Package repository declares the record-store interfaces the services
// depend on. Implementations live in the sqlite and postgres subpackages.
package repository

import (
	"context"

	"github.com/sakif/whispering-network/internal/model"
)

// MessageFilter selects messages for ListMessages. Nil fields are not
// filtered on; set fields must match exactly.
type MessageFilter struct {
	IsPublic  *bool
	Category  *string
	Recipient *string
}

type MessageRepository interface {
	// CreateMessage inserts m and fills in its ID and CreatedAt.
	CreateMessage(ctx context.Context, m *model.Message) error
	// ListMessages returns matching messages newest first, each with its
	// replies newest first.
	ListMessages(ctx context.Context, f MessageFilter) ([]model.MessageWithReplies, error)
	// SetMessageVisibility returns apperror.ErrNotFound when id is absent.
	SetMessageVisibility(ctx context.Context, id int64, isPublic bool) (*model.Message, error)
}

type ReplyRepository interface {
	// CreateReply returns an apperror.ErrValidation on messageId when the
	// parent message does not exist.
	CreateReply(ctx context.Context, r *model.Reply) error
	ListReplies(ctx context.Context, messageID int64) ([]model.Reply, error)
}

type AdminRepository interface {
	// CreateAdmin returns apperror.ErrConflict on a duplicate username or nickname.
	CreateAdmin(ctx context.Context, a *model.Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetAdminByID(ctx context.Context, id int64) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	SetAdminActive(ctx context.Context, id int64, isActive bool) (*model.Admin, error)
	ListActiveNicknames(ctx context.Context) ([]string, error)
}

// Store is the whole record store: every repository plus its lifecycle.
type Store interface {
	MessageRepository
	ReplyRepository
	AdminRepository
	Ping(ctx context.Context) error
	Close() error
}
