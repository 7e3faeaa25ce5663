package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/auth"
	"github.com/sakif/whispering-network/internal/metrics"
	"github.com/sakif/whispering-network/internal/model"
	"github.com/sakif/whispering-network/internal/repository"
)

// DefaultRecipients is returned by Recipients when no admin is active, so
// the "who can I write to" list is never empty.
var DefaultRecipients = []string{"Admin", "Moderator", "Support", "Community Manager"}

// invalidCredentials is the single message for every login failure.
const invalidCredentials = "Invalid credentials"

// CreateAdminInput is the caller-supplied part of a new admin account.
type CreateAdminInput struct {
	Username string
	Password string
	Nickname string
	Role     string
	IsActive *bool
}

// AdminService manages admin accounts, login and the recipient directory.
type AdminService struct {
	repo      repository.AdminRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAdminService(repo repository.AdminRepository, passwords *auth.PasswordService, logger *slog.Logger) *AdminService {
	return &AdminService{
		repo:      repo,
		passwords: passwords,
		logger:    logger,
	}
}

// Create hashes the password and stores a new admin. Role defaults to
// "admin" and IsActive to true. A taken username or nickname comes back as
// apperror.ErrConflict.
func (s *AdminService) Create(ctx context.Context, in CreateAdminInput) (*model.Admin, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		return nil, apperror.ValidationFailed("nickname", "nickname is required")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	a := &model.Admin{
		Username:     username,
		PasswordHash: hash,
		Nickname:     nickname,
		Role:         strings.TrimSpace(in.Role),
		IsActive:     true,
	}
	if a.Role == "" {
		a.Role = model.DefaultAdminRole
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}

	if err := s.repo.CreateAdmin(ctx, a); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create admin",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating admin: %w", err)
	}

	s.logger.Info("admin created",
		slog.Int64("id", a.ID),
		slog.String("username", a.Username),
		slog.String("nickname", a.Nickname),
	)
	return a, nil
}

// List returns every admin, newest first.
func (s *AdminService) List(ctx context.Context) ([]model.Admin, error) {
	admins, err := s.repo.ListAdmins(ctx)
	if err != nil {
		s.logger.Error("failed to list admins", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	return admins, nil
}

// GetByID returns apperror.ErrNotFound for an unknown id.
func (s *AdminService) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "id must be a positive number")
	}
	return s.repo.GetAdminByID(ctx, id)
}

// SetActive activates or deactivates an admin. Inactive admins cannot log in
// and drop out of the recipient directory.
func (s *AdminService) SetActive(ctx context.Context, id int64, isActive bool) (*model.Admin, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "id must be a positive number")
	}

	a, err := s.repo.SetAdminActive(ctx, id, isActive)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update admin status",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating admin status: %w", err)
	}

	s.logger.Info("admin status updated",
		slog.Int64("id", id),
		slog.Bool("active", isActive),
	)
	return a, nil
}

// Login returns the admin when username exists, password verifies and the
// account is active. Every other outcome is the same apperror.ErrUnauthorized,
// and an unknown username still costs one bcrypt comparison.
func (s *AdminService) Login(ctx context.Context, username, password string) (*model.Admin, error) {
	a, err := s.repo.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to look up admin", slog.String("error", err.Error()))
			return nil, fmt.Errorf("looking up admin: %w", err)
		}
		_ = s.passwords.VerifyDummy(password)
		return nil, s.loginFailed(username, "unknown username")
	}

	if err := s.passwords.Verify(a.PasswordHash, password); err != nil {
		return nil, s.loginFailed(username, "wrong password")
	}
	if !a.IsActive {
		return nil, s.loginFailed(username, "inactive account")
	}

	metrics.RecordLogin(true)
	s.logger.Info("admin logged in", slog.Int64("id", a.ID), slog.String("username", a.Username))
	return a, nil
}

// loginFailed logs the real reason server-side and returns the uniform error.
func (s *AdminService) loginFailed(username, reason string) error {
	metrics.RecordLogin(false)
	s.logger.Warn("admin login failed",
		slog.String("username", username),
		slog.String("reason", reason),
	)
	return apperror.Unauthorized(invalidCredentials)
}

// Recipients returns the nicknames of active admins, or DefaultRecipients
// when there are none.
func (s *AdminService) Recipients(ctx context.Context) ([]string, error) {
	names, err := s.repo.ListActiveNicknames(ctx)
	if err != nil {
		s.logger.Error("failed to list recipients", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing recipients: %w", err)
	}
	if len(names) == 0 {
		return append([]string(nil), DefaultRecipients...), nil
	}
	return names, nil
}
