package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/model"
)

const adminColumns = `id, username, password_hash, nickname, role, is_active, created_at`

// CreateAdmin inserts an admin account. a.PasswordHash must already be hashed.
// Duplicate usernames or nicknames come back as apperror.ErrConflict.
func (db *DB) CreateAdmin(ctx context.Context, a *model.Admin) (err error) {
	defer observe("create_admin", time.Now(), &err)

	a.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO admins (username, password_hash, nickname, role, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.Username,
		a.PasswordHash,
		a.Nickname,
		a.Role,
		a.IsActive,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating admin %q: %w", a.Username, classify(err))
	}

	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading admin id: %w", err)
	}
	return nil
}

// GetAdminByUsername returns apperror.ErrNotFound when no admin has that username.
func (db *DB) GetAdminByUsername(ctx context.Context, username string) (_ *model.Admin, err error) {
	defer observe("get_admin_by_username", time.Now(), &err)

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE username = ? LIMIT 1`,
		username,
	)
	a, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("admin", username)
		}
		return nil, fmt.Errorf("sqlite: getting admin %q: %w", username, err)
	}
	return &a, nil
}

// GetAdminByID returns apperror.ErrNotFound when the id does not exist.
func (db *DB) GetAdminByID(ctx context.Context, id int64) (_ *model.Admin, err error) {
	defer observe("get_admin_by_id", time.Now(), &err)

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = ?`,
		id,
	)
	a, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("admin", id)
		}
		return nil, fmt.Errorf("sqlite: getting admin %d: %w", id, err)
	}
	return &a, nil
}

// ListAdmins returns every admin, newest first.
func (db *DB) ListAdmins(ctx context.Context) (_ []model.Admin, err error) {
	defer observe("list_admins", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+adminColumns+` FROM admins ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing admins: %w", err)
	}
	defer rows.Close()

	admins := make([]model.Admin, 0)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning admin row: %w", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating admins: %w", err)
	}
	return admins, nil
}

// SetAdminActive flips is_active and returns the updated admin.
func (db *DB) SetAdminActive(ctx context.Context, id int64, isActive bool) (_ *model.Admin, err error) {
	defer observe("set_admin_active", time.Now(), &err)

	row := db.conn.QueryRowContext(ctx,
		`UPDATE admins SET is_active = ? WHERE id = ? RETURNING `+adminColumns,
		isActive, id,
	)
	a, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("admin", id)
		}
		return nil, fmt.Errorf("sqlite: updating admin %d: %w", id, err)
	}
	return &a, nil
}

// ListActiveNicknames returns the nicknames of active admins, oldest first,
// so the recipient directory keeps a stable order as admins are added.
func (db *DB) ListActiveNicknames(ctx context.Context) (_ []string, err error) {
	defer observe("list_active_nicknames", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT nickname FROM admins WHERE is_active = 1 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipients: %w", err)
	}
	defer rows.Close()

	nicknames := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning nickname: %w", err)
		}
		nicknames = append(nicknames, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating nicknames: %w", err)
	}
	return nicknames, nil
}

func scanAdmin(s scanner) (model.Admin, error) {
	var a model.Admin
	err := s.Scan(
		&a.ID,
		&a.Username,
		&a.PasswordHash,
		&a.Nickname,
		&a.Role,
		&a.IsActive,
		&a.CreatedAt,
	)
	return a, err
}
