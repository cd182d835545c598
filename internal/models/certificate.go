// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Certificate is an issued workshop completion certificate. Code and
// VerificationCode are assigned at creation and never change.
type Certificate struct { //nolint:govet // fieldalignment: readability over optimization
	ID               string     `db:"id"`
	Code             string     `db:"code"`
	RecipientName    string     `db:"recipient_name"`
	Email            string     `db:"email"`
	WorkshopName     string     `db:"workshop_name"`
	IssueDate        string     `db:"issue_date"`
	Skills           StringList `db:"skills"`
	Instructor       string     `db:"instructor"`
	IsVerified       bool       `db:"is_verified"`
	VerificationCode string     `db:"verification_code"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// CertificateView is the admin representation of a certificate.
type CertificateView struct { //nolint:govet // fieldalignment: readability over optimization
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	RecipientName    string    `json:"recipient_name"`
	Email            string    `json:"email"`
	WorkshopName     string    `json:"workshop_name"`
	IssueDate        string    `json:"issue_date"`
	Skills           []string  `json:"skills"`
	Instructor       string    `json:"instructor"`
	IsVerified       bool      `json:"is_verified"`
	VerificationCode string    `json:"verification_code"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// VerificationView is the public representation returned by verification
// lookups. It has no email field.
type VerificationView struct {
	ID            string   `json:"id"`
	Code          string   `json:"code"`
	RecipientName string   `json:"recipient_name"`
	WorkshopName  string   `json:"workshop_name"`
	IssueDate     string   `json:"issue_date"`
	Skills        []string `json:"skills"`
	Instructor    string   `json:"instructor"`
	IsVerified    bool     `json:"is_verified"`
}

// AdminView projects the certificate for authenticated admins.
func (c *Certificate) AdminView() CertificateView {
	return CertificateView{
		ID:               c.ID,
		Code:             c.Code,
		RecipientName:    c.RecipientName,
		Email:            c.Email,
		WorkshopName:     c.WorkshopName,
		IssueDate:        c.IssueDate,
		Skills:           c.Skills.Slice(),
		Instructor:       c.Instructor,
		IsVerified:       c.IsVerified,
		VerificationCode: c.VerificationCode,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// PublicView projects the certificate for public verification.
func (c *Certificate) PublicView() VerificationView {
	return VerificationView{
		ID:            c.ID,
		Code:          c.Code,
		RecipientName: c.RecipientName,
		WorkshopName:  c.WorkshopName,
		IssueDate:     c.IssueDate,
		Skills:        c.Skills.Slice(),
		Instructor:    c.Instructor,
		IsVerified:    c.IsVerified,
	}
}

// StringList is an ordered list of strings stored as a JSON array.
type StringList []string

// Slice returns the list as a non-nil slice.
func (l StringList) Slice() []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	b, err := json.Marshal(l.Slice())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}

	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("decoding string list: %w", err)
	}
	*l = items
	return nil
}
