package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/model"
	"github.com/sakif/whispering-network/internal/repository"
)

// newTestDB opens a fresh in-memory database for one test.
// t.Cleanup closes it when the test (and its subtests) finish.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func createTestMessage(t *testing.T, db *DB, content, category string, isPublic bool) *model.Message {
	t.Helper()
	m := &model.Message{Content: content, Category: category, IsPublic: isPublic}
	if err := db.CreateMessage(context.Background(), m); err != nil {
		t.Fatalf("failed to create test message: %v", err)
	}
	return m
}

func createTestReply(t *testing.T, db *DB, messageID int64, content, nickname string) *model.Reply {
	t.Helper()
	r := &model.Reply{MessageID: messageID, Content: content, Nickname: nickname}
	if err := db.CreateReply(context.Background(), r); err != nil {
		t.Fatalf("failed to create test reply: %v", err)
	}
	return r
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateMessage(t *testing.T) {
	db := newTestDB(t)

	m := &model.Message{
		Content:     "hello out there",
		Category:    "hope",
		SpotifyLink: strPtr("https://open.spotify.com/track/abc"),
		IsPublic:    true,
		SenderName:  strPtr("June"),
	}
	if err := db.CreateMessage(context.Background(), m); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	if m.ID == 0 {
		t.Error("CreateMessage() did not set ID")
	}
	if m.CreatedAt.IsZero() {
		t.Error("CreateMessage() did not set CreatedAt")
	}

	got, err := db.ListMessages(context.Background(), repository.MessageFilter{})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].SpotifyLink == nil || *got[0].SpotifyLink != "https://open.spotify.com/track/abc" {
		t.Errorf("SpotifyLink = %v, want the stored link", got[0].SpotifyLink)
	}
	if got[0].SenderName == nil || *got[0].SenderName != "June" {
		t.Errorf("SenderName = %v, want June", got[0].SenderName)
	}
	if got[0].Recipient != nil {
		t.Errorf("Recipient = %v, want nil", *got[0].Recipient)
	}
	if got[0].Replies == nil {
		t.Error("Replies should be an empty slice, not nil")
	}
}

func TestCreateMessage_IDsIncrease(t *testing.T) {
	db := newTestDB(t)
	first := createTestMessage(t, db, "one", "hope", true)
	second := createTestMessage(t, db, "two", "hope", true)

	if second.ID <= first.ID {
		t.Errorf("second.ID = %d, want > %d", second.ID, first.ID)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListMessages_PublicPrivatePartition(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestMessage(t, db, "pub 1", "hope", true)
	createTestMessage(t, db, "priv 1", "support", false)
	createTestMessage(t, db, "pub 2", "dreams", true)

	public, err := db.ListMessages(ctx, repository.MessageFilter{IsPublic: boolPtr(true)})
	if err != nil {
		t.Fatalf("ListMessages(public) error = %v", err)
	}
	private, err := db.ListMessages(ctx, repository.MessageFilter{IsPublic: boolPtr(false)})
	if err != nil {
		t.Fatalf("ListMessages(private) error = %v", err)
	}

	if len(public) != 2 {
		t.Errorf("len(public) = %d, want 2", len(public))
	}
	for _, m := range public {
		if !m.IsPublic {
			t.Errorf("public list contains private message %d", m.ID)
		}
	}
	if len(private) != 1 || private[0].IsPublic {
		t.Errorf("private = %+v, want exactly the one private message", private)
	}
}

func TestListMessages_NewestFirst(t *testing.T) {
	db := newTestDB(t)

	first := createTestMessage(t, db, "first", "hope", true)
	second := createTestMessage(t, db, "second", "hope", true)
	third := createTestMessage(t, db, "third", "hope", true)

	got, err := db.ListMessages(context.Background(), repository.MessageFilter{})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}

	want := []int64{third.ID, second.ID, first.ID}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestListMessages_NestsRepliesNewestFirst(t *testing.T) {
	db := newTestDB(t)

	m := createTestMessage(t, db, "with replies", "gratitude", true)
	other := createTestMessage(t, db, "no replies", "gratitude", true)
	older := createTestReply(t, db, m.ID, "first!", "ana")
	newer := createTestReply(t, db, m.ID, "second", "ben")

	got, err := db.ListMessages(context.Background(), repository.MessageFilter{})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}

	for _, msg := range got {
		switch msg.ID {
		case m.ID:
			if len(msg.Replies) != 2 {
				t.Fatalf("len(Replies) = %d, want 2", len(msg.Replies))
			}
			if msg.Replies[0].ID != newer.ID || msg.Replies[1].ID != older.ID {
				t.Errorf("replies out of order: %+v", msg.Replies)
			}
		case other.ID:
			if len(msg.Replies) != 0 {
				t.Errorf("message without replies has %d replies", len(msg.Replies))
			}
		}
	}
}

func TestListMessages_ByCategory(t *testing.T) {
	db := newTestDB(t)
	createTestMessage(t, db, "a", "hope", true)
	createTestMessage(t, db, "b", "dreams", true)
	createTestMessage(t, db, "c", "hope", false)

	got, err := db.ListMessages(context.Background(), repository.MessageFilter{Category: strPtr("hope")})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, m := range got {
		if m.Category != "hope" {
			t.Errorf("Category = %q, want hope", m.Category)
		}
	}

	// Exact match only.
	got, err = db.ListMessages(context.Background(), repository.MessageFilter{Category: strPtr("Hope")})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0 for a differently-cased category", len(got))
	}
}

func TestListMessages_ByRecipient(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	addressed := &model.Message{Content: "for you", Category: "support", Recipient: strPtr("Moderator")}
	if err := db.CreateMessage(ctx, addressed); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	createTestMessage(t, db, "for everyone", "support", true)

	got, err := db.ListMessages(ctx, repository.MessageFilter{Recipient: strPtr("Moderator")})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != addressed.ID {
		t.Errorf("got %+v, want only message %d", got, addressed.ID)
	}
}

func TestListMessages_Empty(t *testing.T) {
	db := newTestDB(t)

	got, err := db.ListMessages(context.Background(), repository.MessageFilter{IsPublic: boolPtr(true)})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

// =========================================================================
// VISIBILITY TESTS
// =========================================================================

func TestSetMessageVisibility_MovesBetweenFeeds(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := createTestMessage(t, db, "secret", "reflection", false)

	updated, err := db.SetMessageVisibility(ctx, m.ID, true)
	if err != nil {
		t.Fatalf("SetMessageVisibility() error = %v", err)
	}
	if !updated.IsPublic {
		t.Error("updated.IsPublic = false, want true")
	}
	if updated.Content != "secret" || !updated.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("update changed other fields: %+v", updated)
	}

	// Applying the same value twice is idempotent.
	if _, err := db.SetMessageVisibility(ctx, m.ID, true); err != nil {
		t.Fatalf("second SetMessageVisibility() error = %v", err)
	}

	private, _ := db.ListMessages(ctx, repository.MessageFilter{IsPublic: boolPtr(false)})
	public, _ := db.ListMessages(ctx, repository.MessageFilter{IsPublic: boolPtr(true)})
	if len(private) != 0 || len(public) != 1 {
		t.Errorf("len(private)=%d len(public)=%d, want 0 and 1", len(private), len(public))
	}
}

func TestSetMessageVisibility_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.SetMessageVisibility(context.Background(), 999, true)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// REPLY TESTS
// =========================================================================

func TestCreateReply_UnknownMessageRejected(t *testing.T) {
	db := newTestDB(t)

	err := db.CreateReply(context.Background(), &model.Reply{MessageID: 12345, Content: "hi", Nickname: "x"})
	if err == nil {
		t.Fatal("CreateReply() should fail for a message that does not exist")
	}
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestListReplies(t *testing.T) {
	db := newTestDB(t)
	m := createTestMessage(t, db, "m", "hope", true)
	a := createTestReply(t, db, m.ID, "a", "ana")
	b := createTestReply(t, db, m.ID, "b", "ben")

	got, err := db.ListReplies(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("ListReplies() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("got %+v, want [%d %d]", got, b.ID, a.ID)
	}

	none, err := db.ListReplies(context.Background(), 424242)
	if err != nil {
		t.Fatalf("ListReplies(unknown) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("len = %d, want 0", len(none))
	}
}
