// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email notifies certificate recipients over SMTP.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/i18n"
	"codeberg.org/acmclub/certificates/internal/models"
	"github.com/wneessen/go-mail"
)

// Service sends certificate notifications.
type Service struct {
	cfg       *config.SMTPConfig
	publicURL string
}

// NewService creates a new email service. publicURL is the frontend base
// URL that verification links point to.
func NewService(cfg *config.SMTPConfig, publicURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:       cfg,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// VerifyURL returns the public verification page of a certificate code.
func (s *Service) VerifyURL(code string) string {
	return s.publicURL + "/verify/" + url.PathEscape(code)
}

// CertificateMessage renders the localized subject and plain-text body
// announcing cert to its recipient.
func (s *Service) CertificateMessage(ctx context.Context, cert *models.Certificate) (string, string) {
	data := map[string]any{
		"Name":      cert.RecipientName,
		"Workshop":  cert.WorkshopName,
		"Code":      cert.Code,
		"VerifyURL": s.VerifyURL(cert.Code),
	}

	return i18n.TData(ctx, "email_certificate_subject", data),
		i18n.TData(ctx, "email_certificate_body", data)
}

// SendCertificateIssued mails the certificate code and verification link to
// the recipient.
func (s *Service) SendCertificateIssued(ctx context.Context, cert *models.Certificate) error {
	subject, body := s.CertificateMessage(ctx, cert)

	if err := s.send(ctx, cert.Email, subject, body); err != nil {
		return err
	}

	slog.Info("certificate_mail_sent", "certificate_id", cert.ID)
	return nil
}

func (s *Service) newMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}

func (s *Service) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS on 465, STARTTLS elsewhere
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return opts
}

func (s *Service) send(ctx context.Context, to, subject, body string) error {
	msg, err := s.newMessage(to, subject, body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
