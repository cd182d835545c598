// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"codeberg.org/acmclub/certificates/internal/models"
	"github.com/google/uuid"
)

const certificateColumns = `id, code, recipient_name, email, workshop_name, issue_date, skills,
	instructor, is_verified, verification_code, created_at, updated_at`

// CreateCertificate inserts a new certificate. A duplicate code returns
// ErrConflict.
func (r *Repository) CreateCertificate(ctx context.Context, c *models.Certificate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.VerificationCode == "" {
		c.VerificationCode = uuid.NewString()
	}
	if c.Skills == nil {
		c.Skills = models.StringList{}
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt

	_, err := r.exec(ctx,
		`INSERT INTO certificates (`+certificateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.RecipientName, c.Email, c.WorkshopName, c.IssueDate, c.Skills,
		c.Instructor, c.IsVerified, c.VerificationCode, c.CreatedAt, c.UpdatedAt)
	return err
}

// LinkCertificate associates a certificate with a workshop. Linking twice
// returns ErrConflict, an unknown workshop or certificate ErrNotFound.
func (r *Repository) LinkCertificate(ctx context.Context, workshopID, certificateID string) error {
	_, err := r.exec(ctx,
		`INSERT INTO workshop_certificates (workshop_id, certificate_id) VALUES (?, ?)`,
		workshopID, certificateID)
	return err
}

// GetCertificate retrieves a certificate by ID.
func (r *Repository) GetCertificate(ctx context.Context, id string) (*models.Certificate, error) {
	var c models.Certificate
	if err := r.get(ctx, &c, `SELECT `+certificateColumns+` FROM certificates WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindCertificateByCode retrieves a certificate whose code or verification
// code matches.
func (r *Repository) FindCertificateByCode(ctx context.Context, code, verificationCode string) (*models.Certificate, error) {
	var c models.Certificate
	err := r.get(ctx, &c,
		`SELECT `+certificateColumns+` FROM certificates WHERE code = ? OR verification_code = ?`,
		code, verificationCode)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCertificates returns a page of certificates, newest first.
func (r *Repository) ListCertificates(ctx context.Context, skip, limit int) ([]models.Certificate, error) {
	certs := []models.Certificate{}
	err := r.selectAll(ctx, &certs,
		`SELECT `+certificateColumns+` FROM certificates ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, skip)
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// ListCertificatesByEmail returns all certificates of a recipient. Email
// comparison ignores case.
func (r *Repository) ListCertificatesByEmail(ctx context.Context, email string) ([]models.Certificate, error) {
	certs := []models.Certificate{}
	err := r.selectAll(ctx, &certs,
		`SELECT `+certificateColumns+` FROM certificates WHERE LOWER(email) = LOWER(?) ORDER BY created_at DESC, id DESC`,
		email)
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// ListWorkshopCertificates returns the certificates linked to a workshop.
func (r *Repository) ListWorkshopCertificates(ctx context.Context, workshopID string) ([]models.Certificate, error) {
	certs := []models.Certificate{}
	err := r.selectAll(ctx, &certs,
		`SELECT c.id, c.code, c.recipient_name, c.email, c.workshop_name, c.issue_date, c.skills,
			c.instructor, c.is_verified, c.verification_code, c.created_at, c.updated_at
		FROM certificates c
		JOIN workshop_certificates wc ON wc.certificate_id = c.id
		WHERE wc.workshop_id = ?
		ORDER BY c.created_at DESC, c.id DESC`,
		workshopID)
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// UpdateCertificate applies changes and returns the stored row.
func (r *Repository) UpdateCertificate(ctx context.Context, id string, c Changes) (*models.Certificate, error) {
	var updated *models.Certificate
	err := r.WithTx(ctx, func(tx *Repository) error {
		if err := tx.updateOne(ctx, "certificates", id, c, time.Now().UTC()); err != nil {
			return err
		}
		var err error
		updated, err = tx.GetCertificate(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCertificate deletes a certificate and its workshop links.
func (r *Repository) DeleteCertificate(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM certificates WHERE id = ?`, id)
}

// CountCertificates returns the total number of certificates.
func (r *Repository) CountCertificates(ctx context.Context) (int64, error) {
	var count int64
	err := r.get(ctx, &count, `SELECT COUNT(*) FROM certificates`)
	return count, err
}

// MaxCodeSequence returns the highest numeric suffix among codes made of
// stem followed by at least three digits, or 0 if there are none.
func (r *Repository) MaxCodeSequence(ctx context.Context, stem string) (int, error) {
	var codes []string
	if err := r.selectAll(ctx, &codes, `SELECT code FROM certificates WHERE code LIKE ?`, stem+"%"); err != nil {
		return 0, err
	}

	highest := 0
	for _, code := range codes {
		suffix, ok := strings.CutPrefix(code, stem)
		if !ok || len(suffix) < 3 || strings.TrimLeft(suffix, "0123456789") != "" {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}
