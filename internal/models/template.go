// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Placeholder positions a text field on a template image. X and Y are
// percentages (0-100) of the image dimensions, FontSize is in points.
type Placeholder struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize"`
}

// Default placeholder layout: the name sits centred near the vertical middle,
// the code lower and smaller.
var (
	DefaultNamePlaceholder = Placeholder{X: 50, Y: 50, FontSize: 36}
	DefaultCodePlaceholder = Placeholder{X: 50, Y: 85, FontSize: 14}
)

// Template is the certificate image layout of a workshop.
type Template struct { //nolint:govet // fieldalignment: readability over optimization
	ID           string    `db:"id" json:"id"`
	WorkshopID   string    `db:"workshop_id" json:"event_id"`
	ImageURL     string    `db:"image_url" json:"image_url"`
	NameX        float64   `db:"name_x" json:"-"`
	NameY        float64   `db:"name_y" json:"-"`
	NameFontSize float64   `db:"name_font_size" json:"-"`
	CodeX        float64   `db:"code_x" json:"-"`
	CodeY        float64   `db:"code_y" json:"-"`
	CodeFontSize float64   `db:"code_font_size" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// NamePlaceholder returns the recipient name position.
func (t *Template) NamePlaceholder() Placeholder {
	return Placeholder{X: t.NameX, Y: t.NameY, FontSize: t.NameFontSize}
}

// CodePlaceholder returns the certificate code position.
func (t *Template) CodePlaceholder() Placeholder {
	return Placeholder{X: t.CodeX, Y: t.CodeY, FontSize: t.CodeFontSize}
}

// SetPlaceholders stores both placeholder positions.
func (t *Template) SetPlaceholders(name, code Placeholder) {
	t.NameX, t.NameY, t.NameFontSize = name.X, name.Y, name.FontSize
	t.CodeX, t.CodeY, t.CodeFontSize = code.X, code.Y, code.FontSize
}

// TemplateView is the API representation of a template.
type TemplateView struct { //nolint:govet // fieldalignment: readability over optimization
	ID        string      `json:"id"`
	EventID   string      `json:"event_id"`
	ImageURL  string      `json:"image_url"`
	Name      Placeholder `json:"name"`
	Code      Placeholder `json:"code"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// View projects the template with nested placeholders.
func (t *Template) View() TemplateView {
	return TemplateView{
		ID:        t.ID,
		EventID:   t.WorkshopID,
		ImageURL:  t.ImageURL,
		Name:      t.NamePlaceholder(),
		Code:      t.CodePlaceholder(),
		UpdatedAt: t.UpdatedAt,
	}
}
