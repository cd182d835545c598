// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Workshop levels. Level is stored as free text, these are the values the
// frontend offers.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Workshop is an event for which certificates are issued.
type Workshop struct { //nolint:govet // fieldalignment: readability over optimization
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Date        string    `db:"date" json:"date"`
	Description *string   `db:"description" json:"description"`
	Level       string    `db:"level" json:"level"`
	Instructor  string    `db:"instructor" json:"instructor"`
	Image       *string   `db:"image" json:"image"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
