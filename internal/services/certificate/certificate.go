// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package certificate issues, edits and verifies certificates.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/patch"
	"codeberg.org/acmclub/certificates/internal/repository"
	"golang.org/x/sync/errgroup"
)

// maxCodeAttempts bounds retries when a generated code is already taken.
const maxCodeAttempts = 3

var codePattern = regexp.MustCompile(`^[A-Z0-9-]{3,64}$`)

// Notifier is told about every newly issued certificate.
type Notifier interface {
	SendCertificateIssued(ctx context.Context, cert *models.Certificate) error
}

// CreateInput holds the fields of a new certificate. WorkshopName and
// Instructor default to the linked workshop's values.
type CreateInput struct {
	Code          string   `json:"code" validate:"omitempty,max=64"`
	RecipientName string   `json:"recipient_name" validate:"required,max=200"`
	Email         string   `json:"email" validate:"required,email"`
	WorkshopName  string   `json:"workshop_name" validate:"omitempty,max=200"`
	IssueDate     string   `json:"issue_date" validate:"required,max=100"`
	Skills        []string `json:"skills" validate:"max=50,dive,max=100"`
	Instructor    string   `json:"instructor" validate:"omitempty,max=200"`
	IsVerified    *bool    `json:"is_verified"`
	WorkshopID    string   `json:"workshop_id"`
}

// BulkInput issues several certificates for one workshop.
type BulkInput struct {
	WorkshopID   string        `json:"workshop_id" validate:"required"`
	Certificates []CreateInput `json:"certificates" validate:"required,min=1,max=500,dive"`
}

// UpdateInput is a partial update. Code and verification code cannot be
// changed.
type UpdateInput struct {
	RecipientName patch.Field[string]   `json:"recipient_name"`
	WorkshopName  patch.Field[string]   `json:"workshop_name"`
	IssueDate     patch.Field[string]   `json:"issue_date"`
	Skills        patch.Field[[]string] `json:"skills"`
	Instructor    patch.Field[string]   `json:"instructor"`
	IsVerified    patch.Field[bool]     `json:"is_verified"`
}

// Stats summarises the store for the admin dashboard.
type Stats struct {
	TotalCertificates int64 `json:"total_certificates"`
	TotalWorkshops    int64 `json:"total_workshops"`
}

// maxConcurrentNotifications bounds parallel sends for one batch.
const maxConcurrentNotifications = 4

type Service struct {
	repo     *repository.Repository
	api      config.APIConfig
	prefix   string
	notifier Notifier
	now      func() time.Time
	pending  sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sends a notification for each issued certificate. Sends run
// in the background after the certificates are stored; see Wait.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock replaces the wall clock used for the year in generated codes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo *repository.Repository, api config.APIConfig, certs config.CertificateConfig, opts ...Option) *Service {
	prefix := strings.ToUpper(strings.TrimSpace(certs.CodePrefix))
	if prefix == "" {
		prefix = "ACM"
	}

	s := &Service{
		repo:   repo,
		api:    api,
		prefix: prefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create issues a single certificate, optionally linked to a workshop.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Certificate, error) {
	cert, err := normalize(in, "")
	if err != nil {
		return nil, err
	}
	explicit := cert.Code != ""
	workshopID := strings.TrimSpace(in.WorkshopID)

	for attempt := 0; ; attempt++ {
		issued := *cert
		err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
			var w *models.Workshop
			if workshopID != "" {
				var err error
				if w, err = tx.GetWorkshop(ctx, workshopID); err != nil {
					return err
				}
			}
			return s.issue(ctx, tx, &issued, w, attempt)
		})
		if err == nil {
			cert = &issued
			break
		}
		if explicit || !errors.Is(err, repository.ErrConflict) || attempt+1 >= maxCodeAttempts {
			return nil, fmt.Errorf("failed to create certificate: %w", err)
		}
	}

	slog.Info("certificate_created", "certificate_id", cert.ID, "code", cert.Code)
	s.notify(ctx, []models.Certificate{*cert})
	return cert, nil
}

// BulkCreate issues all certificates for a workshop in one transaction.
// Either every certificate is stored or none is.
func (s *Service) BulkCreate(ctx context.Context, in BulkInput) ([]models.Certificate, error) {
	workshopID := strings.TrimSpace(in.WorkshopID)
	if workshopID == "" {
		return nil, apperr.Invalid("workshop_id", "must not be empty")
	}
	if len(in.Certificates) == 0 {
		return nil, apperr.Invalid("certificates", "must contain at least one certificate")
	}

	prepared := make([]models.Certificate, len(in.Certificates))
	for i, item := range in.Certificates {
		cert, err := normalize(item, fmt.Sprintf("certificates[%d].", i))
		if err != nil {
			return nil, err
		}
		prepared[i] = *cert
	}

	var issued []models.Certificate
	for attempt := 0; ; attempt++ {
		var generatedConflict bool
		issued = make([]models.Certificate, len(prepared))
		copy(issued, prepared)

		err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
			w, err := tx.GetWorkshop(ctx, workshopID)
			if err != nil {
				return err
			}
			for i := range issued {
				explicit := issued[i].Code != ""
				if err := s.issue(ctx, tx, &issued[i], w, attempt); err != nil {
					generatedConflict = !explicit && errors.Is(err, repository.ErrConflict)
					return fmt.Errorf("certificate %d: %w", i, err)
				}
			}
			return nil
		})
		if err == nil {
			break
		}
		if !generatedConflict || attempt+1 >= maxCodeAttempts {
			return nil, fmt.Errorf("failed to create certificates: %w", err)
		}
	}

	slog.Info("certificates_bulk_created", "workshop_id", workshopID, "count", len(issued))
	s.notify(ctx, issued)
	return issued, nil
}

// issue fills workshop defaults and a code if needed, then stores and links
// the certificate.
func (s *Service) issue(ctx context.Context, tx *repository.Repository, cert *models.Certificate, w *models.Workshop, attempt int) error {
	if w != nil {
		if cert.WorkshopName == "" {
			cert.WorkshopName = w.Title
		}
		if cert.Instructor == "" {
			cert.Instructor = w.Instructor
		}
	}
	if cert.WorkshopName == "" {
		return apperr.Invalid("workshop_name", "must not be empty")
	}
	if cert.Instructor == "" {
		return apperr.Invalid("instructor", "must not be empty")
	}

	if cert.Code == "" {
		code, err := s.generateCode(ctx, tx, cert.WorkshopName, attempt)
		if err != nil {
			return err
		}
		cert.Code = code
	}

	if err := tx.CreateCertificate(ctx, cert); err != nil {
		return err
	}
	if w != nil {
		if err := tx.LinkCertificate(ctx, w.ID, cert.ID); err != nil {
			return err
		}
	}
	return nil
}

// generateCode builds <prefix>-<year>-<SLUG><NNN> numbered after the highest
// sequence already issued for that stem.
func (s *Service) generateCode(ctx context.Context, tx *repository.Repository, workshopName string, attempt int) (string, error) {
	stem := fmt.Sprintf("%s-%d-%s", s.prefix, s.now().Year(), Slug(workshopName))
	highest, err := tx.MaxCodeSequence(ctx, stem)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", stem, highest+1+attempt), nil
}

// Slug returns up to five upper-case letters and digits of name, or CERT if
// name has none.
func Slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if b.Len() == 5 {
			break
		}
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "CERT"
	}
	return b.String()
}

func normalize(in CreateInput, fieldPrefix string) (*models.Certificate, error) {
	cert := &models.Certificate{
		Code:          strings.ToUpper(strings.TrimSpace(in.Code)),
		RecipientName: strings.TrimSpace(in.RecipientName),
		Email:         strings.TrimSpace(in.Email),
		WorkshopName:  strings.TrimSpace(in.WorkshopName),
		IssueDate:     strings.TrimSpace(in.IssueDate),
		Skills:        cleanSkills(in.Skills),
		Instructor:    strings.TrimSpace(in.Instructor),
		IsVerified:    true,
	}
	if in.IsVerified != nil {
		cert.IsVerified = *in.IsVerified
	}

	switch {
	case cert.Code != "" && !codePattern.MatchString(cert.Code):
		return nil, apperr.Invalid(fieldPrefix+"code", "must be 3-64 characters of A-Z, 0-9 and '-'")
	case cert.RecipientName == "":
		return nil, apperr.Invalid(fieldPrefix+"recipient_name", "must not be empty")
	case cert.Email == "" || !strings.Contains(cert.Email, "@"):
		return nil, apperr.Invalid(fieldPrefix+"email", "must be a valid email address")
	case cert.IssueDate == "":
		return nil, apperr.Invalid(fieldPrefix+"issue_date", "must not be empty")
	}
	return cert, nil
}

func cleanSkills(skills []string) models.StringList {
	out := make(models.StringList, 0, len(skills))
	for _, skill := range skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			out = append(out, skill)
		}
	}
	return out
}

// notify sends the issue notifications without holding up the request.
// Failures are logged.
func (s *Service) notify(ctx context.Context, certs []models.Certificate) {
	if s.notifier == nil || len(certs) == 0 {
		return
	}
	certs = slices.Clone(certs)
	// The request context ends with the response.
	ctx = context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		var g errgroup.Group
		g.SetLimit(maxConcurrentNotifications)
		for i := range certs {
			cert := &certs[i]
			g.Go(func() error {
				if err := s.notifier.SendCertificateIssued(ctx, cert); err != nil {
					slog.Warn("certificate_notification_failed", "certificate_id", cert.ID, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Wait blocks until all notifications started so far have been sent.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Get returns a certificate or repository.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.Certificate, error) {
	return s.repo.GetCertificate(ctx, id)
}

// List returns a page of certificates, newest first.
func (s *Service) List(ctx context.Context, skip, limit int) ([]models.Certificate, error) {
	skip, limit = s.api.Page(skip, limit)
	return s.repo.ListCertificates(ctx, skip, limit)
}

// Update applies the fields present in the input.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Certificate, error) {
	var c repository.Changes

	required := []struct {
		column string
		field  patch.Field[string]
	}{
		{"recipient_name", in.RecipientName},
		{"workshop_name", in.WorkshopName},
		{"issue_date", in.IssueDate},
		{"instructor", in.Instructor},
	}
	for _, r := range required {
		if !r.field.Set {
			continue
		}
		value := strings.TrimSpace(r.field.Value)
		if r.field.Null || value == "" {
			return nil, apperr.Invalid(r.column, "must not be empty")
		}
		c.Set(r.column, value)
	}

	if in.Skills.Set {
		if in.Skills.Null {
			return nil, apperr.Invalid("skills", "must be a list")
		}
		c.Set("skills", cleanSkills(in.Skills.Value))
	}
	if in.IsVerified.Set {
		if in.IsVerified.Null {
			return nil, apperr.Invalid("is_verified", "must be true or false")
		}
		c.Set("is_verified", in.IsVerified.Value)
	}

	cert, err := s.repo.UpdateCertificate(ctx, id, c)
	if err != nil {
		return nil, fmt.Errorf("failed to update certificate: %w", err)
	}

	slog.Info("certificate_updated", "certificate_id", id, "fields", c.Len())
	return cert, nil
}

// Delete removes a certificate and its workshop links.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteCertificate(ctx, id); err != nil {
		return fmt.Errorf("failed to delete certificate: %w", err)
	}

	slog.Info("certificate_deleted", "certificate_id", id)
	return nil
}

// Verify looks a certificate up by its code, ignoring case, or by its
// verification code. The result carries no recipient email.
func (s *Service) Verify(ctx context.Context, code string) (*models.VerificationView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, repository.ErrNotFound
	}

	cert, err := s.repo.FindCertificateByCode(ctx, strings.ToUpper(code), strings.ToLower(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("certificate_verify_miss", "code", code)
		}
		return nil, err
	}

	view := cert.PublicView()
	return &view, nil
}

// SearchByEmail lists the certificates of a recipient without their email.
func (s *Service) SearchByEmail(ctx context.Context, email string) ([]models.VerificationView, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Invalid("email", "must not be empty")
	}

	certs, err := s.repo.ListCertificatesByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	views := make([]models.VerificationView, len(certs))
	for i := range certs {
		views[i] = certs[i].PublicView()
	}
	return views, nil
}

// Stats counts certificates and workshops.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	certs, err := s.repo.CountCertificates(ctx)
	if err != nil {
		return Stats{}, err
	}
	workshops, err := s.repo.CountWorkshops(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalCertificates: certs, TotalWorkshops: workshops}, nil
}
