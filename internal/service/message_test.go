package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/whispering-network/internal/apperror"
)

func newTestMessageService(t *testing.T) (*MessageService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewMessageService(store, store, discardLogger()), store
}

func ptr[T any](v T) *T { return &v }

// =========================================================================
// CREATE
// =========================================================================

func TestMessageService_Create_DefaultsToPublic(t *testing.T) {
	svc, _ := newTestMessageService(t)

	m, err := svc.Create(context.Background(), CreateMessageInput{Content: "hi", Category: "hope"})
	require.NoError(t, err)

	assert.NotZero(t, m.ID)
	assert.True(t, m.IsPublic)
	assert.Nil(t, m.SenderName)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestMessageService_Create_ExplicitPrivate(t *testing.T) {
	svc, _ := newTestMessageService(t)

	m, err := svc.Create(context.Background(), CreateMessageInput{
		Content:   "for your eyes",
		Category:  "support",
		IsPublic:  ptr(false),
		Recipient: ptr("Moderator"),
	})
	require.NoError(t, err)

	assert.False(t, m.IsPublic)
	require.NotNil(t, m.Recipient)
	assert.Equal(t, "Moderator", *m.Recipient)
}

func TestMessageService_Create_TrimsAndDropsBlankOptionals(t *testing.T) {
	svc, _ := newTestMessageService(t)

	m, err := svc.Create(context.Background(), CreateMessageInput{
		Content:     "  padded  ",
		Category:    " dreams ",
		SenderName:  ptr("   "),
		SpotifyLink: ptr(""),
	})
	require.NoError(t, err)

	assert.Equal(t, "padded", m.Content)
	assert.Equal(t, "dreams", m.Category)
	assert.Nil(t, m.SenderName)
	assert.Nil(t, m.SpotifyLink)
}

func TestMessageService_Create_Validation(t *testing.T) {
	svc, store := newTestMessageService(t)

	tests := []struct {
		name  string
		in    CreateMessageInput
		field string
	}{
		{"missing content", CreateMessageInput{Category: "hope"}, "content"},
		{"whitespace content", CreateMessageInput{Content: " \t", Category: "hope"}, "content"},
		{"missing category", CreateMessageInput{Content: "hi"}, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
	assert.Empty(t, store.messages, "invalid input must not reach the store")
}

func TestMessageService_Create_StoreError(t *testing.T) {
	svc, store := newTestMessageService(t)
	store.err = errDatabaseDown

	_, err := svc.Create(context.Background(), CreateMessageInput{Content: "hi", Category: "hope"})
	assert.ErrorIs(t, err, errDatabaseDown)
}

// =========================================================================
// LIST
// =========================================================================

func TestMessageService_PublicAndPrivatePartition(t *testing.T) {
	svc, _ := newTestMessageService(t)
	ctx := context.Background()

	for i, public := range []bool{true, false, true, false, false} {
		_, err := svc.Create(ctx, CreateMessageInput{Content: "m", Category: "hope", IsPublic: ptr(public)})
		require.NoError(t, err, "message %d", i)
	}

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	private, err := svc.ListPrivate(ctx)
	require.NoError(t, err)

	assert.Len(t, public, 2)
	assert.Len(t, private, 3)
	for _, m := range public {
		assert.True(t, m.IsPublic)
	}
	for _, m := range private {
		assert.False(t, m.IsPublic)
	}
}

func TestMessageService_ListByCategoryAndRecipient(t *testing.T) {
	svc, _ := newTestMessageService(t)
	ctx := context.Background()

	_, _ = svc.Create(ctx, CreateMessageInput{Content: "a", Category: "hope"})
	_, _ = svc.Create(ctx, CreateMessageInput{Content: "b", Category: "gratitude", Recipient: ptr("Support")})

	byCategory, err := svc.ListByCategory(ctx, "gratitude")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "b", byCategory[0].Content)

	byRecipient, err := svc.ListByRecipient(ctx, "Support")
	require.NoError(t, err)
	require.Len(t, byRecipient, 1)

	none, err := svc.ListByRecipient(ctx, "support")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMessageService_List_StoreError(t *testing.T) {
	svc, store := newTestMessageService(t)
	store.err = errDatabaseDown

	_, err := svc.ListPublic(context.Background())
	assert.ErrorIs(t, err, errDatabaseDown)
}

// =========================================================================
// VISIBILITY
// =========================================================================

func TestMessageService_SetVisibility_PromotesPrivateMessage(t *testing.T) {
	svc, _ := newTestMessageService(t)
	ctx := context.Background()

	m, _ := svc.Create(ctx, CreateMessageInput{Content: "psst", Category: "support", IsPublic: ptr(false)})

	for range 2 {
		updated, err := svc.SetVisibility(ctx, m.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)
	}

	public, _ := svc.ListPublic(ctx)
	private, _ := svc.ListPrivate(ctx)
	assert.Len(t, public, 1)
	assert.Empty(t, private)
}

func TestMessageService_SetVisibility_Errors(t *testing.T) {
	svc, _ := newTestMessageService(t)

	_, err := svc.SetVisibility(context.Background(), 0, true)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.SetVisibility(context.Background(), 404, true)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// REPLIES
// =========================================================================

func TestMessageService_CreateReply(t *testing.T) {
	svc, _ := newTestMessageService(t)
	ctx := context.Background()

	m, _ := svc.Create(ctx, CreateMessageInput{Content: "hi", Category: "hope"})

	r, err := svc.CreateReply(ctx, CreateReplyInput{MessageID: m.ID, Content: " hello back ", Nickname: " ana "})
	require.NoError(t, err)
	assert.Equal(t, "hello back", r.Content)
	assert.Equal(t, "ana", r.Nickname)

	public, _ := svc.ListPublic(ctx)
	require.Len(t, public, 1)
	require.Len(t, public[0].Replies, 1)
	assert.Equal(t, r.ID, public[0].Replies[0].ID)

	replies, err := svc.ListReplies(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, replies, 1)
}

func TestMessageService_CreateReply_Validation(t *testing.T) {
	svc, _ := newTestMessageService(t)
	ctx := context.Background()
	m, _ := svc.Create(ctx, CreateMessageInput{Content: "hi", Category: "hope"})

	tests := []struct {
		name  string
		in    CreateReplyInput
		field string
	}{
		{"zero messageId", CreateReplyInput{Content: "x", Nickname: "n"}, "messageId"},
		{"unknown messageId", CreateReplyInput{MessageID: m.ID + 50, Content: "x", Nickname: "n"}, "messageId"},
		{"blank content", CreateReplyInput{MessageID: m.ID, Content: " ", Nickname: "n"}, "content"},
		{"blank nickname", CreateReplyInput{MessageID: m.ID, Content: "x"}, "nickname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateReply(ctx, tt.in)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestMessageService_ListReplies_InvalidID(t *testing.T) {
	svc, _ := newTestMessageService(t)

	_, err := svc.ListReplies(context.Background(), -1)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
