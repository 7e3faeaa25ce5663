package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/model"
	"github.com/sakif/whispering-network/internal/repository"
)

// fakeStore is an in-memory implementation of every repository interface.
// It keeps the same contracts as the real stores (newest-first ordering,
// NotFound on missing update targets, Conflict on duplicates, Validation on
// replies to unknown messages) so the services can be tested without SQL.
//
// Set err to make every call fail as if the database were down.
type fakeStore struct {
	messages []model.Message
	replies  []model.Reply
	admins   []model.Admin
	nextID   int64
	err      error
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) Ping(context.Context) error { return f.err }
func (f *fakeStore) Close() error               { return nil }

func (f *fakeStore) CreateMessage(_ context.Context, m *model.Message) error {
	if f.err != nil {
		return f.err
	}
	m.ID = f.id()
	m.CreatedAt = time.Now().UTC()
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeStore) ListMessages(_ context.Context, filter repository.MessageFilter) ([]model.MessageWithReplies, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.MessageWithReplies, 0)
	for _, m := range f.messages {
		if filter.IsPublic != nil && m.IsPublic != *filter.IsPublic {
			continue
		}
		if filter.Category != nil && m.Category != *filter.Category {
			continue
		}
		if filter.Recipient != nil && (m.Recipient == nil || *m.Recipient != *filter.Recipient) {
			continue
		}
		replies, _ := f.ListReplies(context.Background(), m.ID)
		out = append(out, model.MessageWithReplies{Message: m, Replies: replies})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) SetMessageVisibility(_ context.Context, id int64, isPublic bool) (*model.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages[i].IsPublic = isPublic
			m := f.messages[i]
			return &m, nil
		}
	}
	return nil, apperror.NotFound("message", id)
}

func (f *fakeStore) CreateReply(_ context.Context, r *model.Reply) error {
	if f.err != nil {
		return f.err
	}
	found := false
	for _, m := range f.messages {
		if m.ID == r.MessageID {
			found = true
			break
		}
	}
	if !found {
		return apperror.ValidationFailed("messageId", "messageId does not reference an existing message")
	}
	r.ID = f.id()
	r.CreatedAt = time.Now().UTC()
	f.replies = append(f.replies, *r)
	return nil
}

func (f *fakeStore) ListReplies(_ context.Context, messageID int64) ([]model.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Reply, 0)
	for _, r := range f.replies {
		if r.MessageID == messageID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateAdmin(_ context.Context, a *model.Admin) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.admins {
		if existing.Username == a.Username {
			return apperror.Conflict("admin", "username")
		}
		if existing.Nickname == a.Nickname {
			return apperror.Conflict("admin", "nickname")
		}
	}
	a.ID = f.id()
	a.CreatedAt = time.Now().UTC()
	f.admins = append(f.admins, *a)
	return nil
}

func (f *fakeStore) GetAdminByUsername(_ context.Context, username string) (*model.Admin, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.admins {
		if a.Username == username {
			found := a
			return &found, nil
		}
	}
	return nil, apperror.NotFound("admin", username)
}

func (f *fakeStore) GetAdminByID(_ context.Context, id int64) (*model.Admin, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.admins {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, apperror.NotFound("admin", id)
}

func (f *fakeStore) ListAdmins(context.Context) ([]model.Admin, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := append([]model.Admin{}, f.admins...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) SetAdminActive(_ context.Context, id int64, isActive bool) (*model.Admin, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.admins {
		if f.admins[i].ID == id {
			f.admins[i].IsActive = isActive
			a := f.admins[i]
			return &a, nil
		}
	}
	return nil, apperror.NotFound("admin", id)
}

func (f *fakeStore) ListActiveNicknames(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, 0)
	for _, a := range f.admins {
		if a.IsActive {
			out = append(out, a.Nickname)
		}
	}
	return out, nil
}

var errDatabaseDown = errors.New("database is down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
