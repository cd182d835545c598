// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/acmclub/certificates/internal/models"
	"github.com/google/uuid"
)

const adminColumns = `id, email, password_hash, is_active, created_at, updated_at`

// CreateAdmin inserts a new admin. A duplicate email returns ErrConflict.
func (r *Repository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now

	_, err := r.exec(ctx,
		`INSERT INTO admins (`+adminColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		admin.ID, admin.Email, admin.PasswordHash, admin.IsActive, admin.CreatedAt, admin.UpdatedAt)
	return err
}

// GetAdminByID retrieves an admin by ID.
func (r *Repository) GetAdminByID(ctx context.Context, id string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.get(ctx, &admin, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetAdminByEmail retrieves an admin by exact email.
func (r *Repository) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.get(ctx, &admin, `SELECT `+adminColumns+` FROM admins WHERE email = ?`, email); err != nil {
		return nil, err
	}
	return &admin, nil
}

// UpdateAdminPassword replaces an admin's password hash.
func (r *Repository) UpdateAdminPassword(ctx context.Context, id, passwordHash string) error {
	return r.execOne(ctx,
		`UPDATE admins SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
}

// SetAdminActive activates or deactivates an admin.
func (r *Repository) SetAdminActive(ctx context.Context, id string, active bool) error {
	return r.execOne(ctx,
		`UPDATE admins SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
}

// CountAdmins returns the number of active admins.
func (r *Repository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.get(ctx, &count, `SELECT COUNT(*) FROM admins WHERE is_active = ?`, true)
	return count, err
}
