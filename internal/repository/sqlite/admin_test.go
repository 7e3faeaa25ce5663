package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/model"
)

func createTestAdmin(t *testing.T, db *DB, username, nickname string, active bool) *model.Admin {
	t.Helper()
	a := &model.Admin{
		Username:     username,
		PasswordHash: "$2a$04$not-a-real-hash",
		Nickname:     nickname,
		Role:         model.DefaultAdminRole,
		IsActive:     active,
	}
	if err := db.CreateAdmin(context.Background(), a); err != nil {
		t.Fatalf("failed to create test admin: %v", err)
	}
	return a
}

func TestCreateAdmin_AndGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestAdmin(t, db, "root", "Admin", true)

	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Fatalf("CreateAdmin() did not fill ID/CreatedAt: %+v", created)
	}

	got, err := db.GetAdminByUsername(context.Background(), "root")
	if err != nil {
		t.Fatalf("GetAdminByUsername() error = %v", err)
	}
	if got.ID != created.ID || got.Nickname != "Admin" || got.PasswordHash != created.PasswordHash {
		t.Errorf("got %+v, want %+v", got, created)
	}
	if !got.IsActive || got.Role != "admin" {
		t.Errorf("IsActive=%v Role=%q, want true/admin", got.IsActive, got.Role)
	}
}

func TestGetAdminByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetAdminByUsername(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetAdminByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestAdmin(t, db, "mod", "Moderator", true)

	got, err := db.GetAdminByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetAdminByID() error = %v", err)
	}
	if got.Username != "mod" {
		t.Errorf("Username = %q, want mod", got.Username)
	}

	if _, err := db.GetAdminByID(context.Background(), created.ID+100); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCreateAdmin_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestAdmin(t, db, "root", "Admin", true)

	err := db.CreateAdmin(context.Background(), &model.Admin{
		Username: "root", PasswordHash: "x", Nickname: "Other", Role: "admin", IsActive: true,
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "username" {
		t.Errorf("Field = %q, want username", appErr.Field)
	}
}

func TestCreateAdmin_DuplicateNickname(t *testing.T) {
	db := newTestDB(t)
	createTestAdmin(t, db, "root", "Admin", true)

	err := db.CreateAdmin(context.Background(), &model.Admin{
		Username: "other", PasswordHash: "x", Nickname: "Admin", Role: "admin", IsActive: true,
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "nickname" {
		t.Errorf("Field = %q, want nickname", appErr.Field)
	}
}

func TestListAdmins_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	a := createTestAdmin(t, db, "a", "A", true)
	b := createTestAdmin(t, db, "b", "B", false)

	got, err := db.ListAdmins(context.Background())
	if err != nil {
		t.Fatalf("ListAdmins() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("got %+v, want [%d %d]", got, b.ID, a.ID)
	}
}

func TestSetAdminActive(t *testing.T) {
	db := newTestDB(t)
	a := createTestAdmin(t, db, "a", "A", true)

	updated, err := db.SetAdminActive(context.Background(), a.ID, false)
	if err != nil {
		t.Fatalf("SetAdminActive() error = %v", err)
	}
	if updated.IsActive {
		t.Error("IsActive = true, want false")
	}

	if _, err := db.SetAdminActive(context.Background(), 9999, true); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListActiveNicknames(t *testing.T) {
	db := newTestDB(t)
	createTestAdmin(t, db, "a", "Alpha", true)
	createTestAdmin(t, db, "b", "Bravo", false)
	createTestAdmin(t, db, "c", "Charlie", true)

	got, err := db.ListActiveNicknames(context.Background())
	if err != nil {
		t.Fatalf("ListActiveNicknames() error = %v", err)
	}
	if len(got) != 2 || got[0] != "Alpha" || got[1] != "Charlie" {
		t.Errorf("got %v, want [Alpha Charlie]", got)
	}
}

func TestListActiveNicknames_NoneActive(t *testing.T) {
	db := newTestDB(t)
	createTestAdmin(t, db, "a", "Alpha", false)

	got, err := db.ListActiveNicknames(context.Background())
	if err != nil {
		t.Fatalf("ListActiveNicknames() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
