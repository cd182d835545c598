// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/repository"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyInitialized = errors.New("admin already initialized")
	ErrRegistrationClosed = errors.New("registration is closed")
)

type Service struct {
	repo      *repository.Repository
	config    *config.AuthConfig
	hasher    *Hasher
	tokens    *TokenManager
	policy    PasswordPolicy
	dummyHash string
}

func NewService(repo *repository.Repository, cfg *config.AuthConfig, tokens *TokenManager) (*Service, error) {
	hasher := NewHasher(cfg.BcryptCost)
	// Unknown emails are compared against this digest so a login costs
	// the same whether or not the admin exists.
	dummyHash, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare login hash: %w", err)
	}

	return &Service{
		repo:      repo,
		config:    cfg,
		hasher:    hasher,
		tokens:    tokens,
		policy:    PasswordPolicy{MinLength: cfg.PasswordMinLength},
		dummyHash: dummyHash,
	}, nil
}

// Tokens returns the token manager used by this service.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Authenticate returns the admin for valid credentials and nil for unknown
// email, wrong password or inactive admin. Only storage failures are errors.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Admin, error) {
	admin, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.hasher.Verify(password, s.dummyHash)
			slog.Warn("login_failed", "email", email, "reason", "unknown_email")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, nil
	}

	if !admin.IsActive {
		slog.Warn("login_failed", "email", email, "reason", "inactive")
		return nil, nil
	}

	return admin, nil
}

// Login authenticates and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	admin, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return Token{}, err
	}
	if admin == nil {
		return Token{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(admin.Email, 0)
	if err != nil {
		return Token{}, err
	}

	slog.Info("login_success", "admin_id", admin.ID, "email", admin.Email)
	return token, nil
}

// Register creates a new active admin.
func (s *Service) Register(ctx context.Context, email, password string) (*models.Admin, error) {
	if s.config.RegistrationMode == config.RegistrationClosed {
		return nil, ErrRegistrationClosed
	}

	admin, err := s.createAdmin(ctx, email, password)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", ErrEmailTaken, err)
		}
		return nil, err
	}

	slog.Info("register_success", "admin_id", admin.ID, "email", admin.Email)
	return admin, nil
}

// InitAdmin creates the configured bootstrap admin unless an admin with that
// email already exists.
func (s *Service) InitAdmin(ctx context.Context) (*models.Admin, error) {
	if s.config.AdminPassword == "" {
		return nil, apperr.Invalid("admin_password", "bootstrap admin password is not configured")
	}

	_, err := s.repo.GetAdminByEmail(ctx, s.config.AdminEmail)
	if err == nil {
		return nil, ErrAlreadyInitialized
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing admin: %w", err)
	}

	admin, err := s.createAdmin(ctx, s.config.AdminEmail, s.config.AdminPassword)
	if err != nil {
		// Lost the race against a concurrent initialisation.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyInitialized
		}
		return nil, err
	}

	slog.Info("admin_initialized", "admin_id", admin.ID, "email", admin.Email)
	return admin, nil
}

func (s *Service) createAdmin(ctx context.Context, email, password string) (*models.Admin, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := s.policy.Validate(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateAdmin(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

// ResolveAdmin verifies token and loads the active admin it names.
func (s *Service) ResolveAdmin(ctx context.Context, token string) (*models.Admin, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	admin, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown admin", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if !admin.IsActive {
		return nil, fmt.Errorf("%w: inactive admin", ErrUnauthorized)
	}

	return admin, nil
}

// Deactivate disables another admin. Admins cannot deactivate themselves.
func (s *Service) Deactivate(ctx context.Context, actor *models.Admin, id string) error {
	if actor != nil && actor.ID == id {
		return apperr.Invalid("id", "cannot deactivate your own account")
	}

	if err := s.repo.SetAdminActive(ctx, id, false); err != nil {
		return fmt.Errorf("failed to deactivate admin: %w", err)
	}

	slog.Info("admin_deactivated", "admin_id", id)
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	admin, err := s.repo.GetAdminByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get admin: %w", err)
	}

	if !s.hasher.Verify(currentPassword, admin.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := s.policy.Validate(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateAdminPassword(ctx, id, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password_changed", "admin_id", id)
	return nil
}
