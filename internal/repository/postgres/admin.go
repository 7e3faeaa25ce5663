package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/model"
)

const adminColumns = `id, username, password_hash, nickname, role, is_active, created_at`

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) (err error) {
	defer observe("create_admin", time.Now(), &err)

	a.CreatedAt = time.Now().UTC()

	sql := `insert into admins (username, password_hash, nickname, role, is_active, created_at)
		values ($1, $2, $3, $4, $5, $6) returning id`
	err = s.db.QueryRow(ctx, sql,
		a.Username, a.PasswordHash, a.Nickname, a.Role, a.IsActive, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("postgres: creating admin %q: %w", a.Username, classify(err))
	}

	s.logger.Debug("created admin", "id", a.ID, "username", a.Username)
	return nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (_ *model.Admin, err error) {
	defer observe("get_admin_by_username", time.Now(), &err)

	a, err := scanAdmin(s.db.QueryRow(ctx,
		`select `+adminColumns+` from admins where username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("admin", username)
		}
		return nil, fmt.Errorf("postgres: getting admin %q: %w", username, err)
	}
	return &a, nil
}

func (s *Store) GetAdminByID(ctx context.Context, id int64) (_ *model.Admin, err error) {
	defer observe("get_admin_by_id", time.Now(), &err)

	a, err := scanAdmin(s.db.QueryRow(ctx,
		`select `+adminColumns+` from admins where id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("admin", id)
		}
		return nil, fmt.Errorf("postgres: getting admin %d: %w", id, err)
	}
	return &a, nil
}

func (s *Store) ListAdmins(ctx context.Context) (_ []model.Admin, err error) {
	defer observe("list_admins", time.Now(), &err)

	rows, err := s.db.Query(ctx,
		`select `+adminColumns+` from admins order by created_at desc, id desc`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing admins: %w", err)
	}
	defer rows.Close()

	admins := make([]model.Admin, 0)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning admin row: %w", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating admins: %w", err)
	}
	return admins, nil
}

func (s *Store) SetAdminActive(ctx context.Context, id int64, isActive bool) (_ *model.Admin, err error) {
	defer observe("set_admin_active", time.Now(), &err)

	a, err := scanAdmin(s.db.QueryRow(ctx,
		`update admins set is_active = $1 where id = $2 returning `+adminColumns, isActive, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("admin", id)
		}
		return nil, fmt.Errorf("postgres: updating admin %d: %w", id, err)
	}
	return &a, nil
}

func (s *Store) ListActiveNicknames(ctx context.Context) (_ []string, err error) {
	defer observe("list_active_nicknames", time.Now(), &err)

	rows, err := s.db.Query(ctx,
		`select nickname from admins where is_active order by created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing recipients: %w", err)
	}
	defer rows.Close()

	nicknames := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("postgres: scanning nickname: %w", err)
		}
		nicknames = append(nicknames, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating nicknames: %w", err)
	}
	return nicknames, nil
}

func scanAdmin(row pgx.Row) (model.Admin, error) {
	var a model.Admin
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.PasswordHash,
		&a.Nickname,
		&a.Role,
		&a.IsActive,
		&a.CreatedAt,
	)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, err
}
