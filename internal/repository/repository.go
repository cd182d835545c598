// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"codeberg.org/acmclub/certificates/internal/database"
	"github.com/vinovest/sqlx"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("record already exists")
)

// Repository runs queries against the entity store. A Repository returned
// by WithTx runs every query inside that transaction.
type Repository struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db, q: db}
}

// DB returns the underlying database handle.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// WithTx runs fn inside a transaction. The transaction commits if fn returns
// nil and rolls back otherwise. Nested calls reuse the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if _, inTx := r.q.(*sqlx.Tx); inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&Repository{db: r.db, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapError(err)
	}
	return nil
}

// wrapError converts driver errors to repository errors.
func wrapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return err
	}
}

func (r *Repository) get(ctx context.Context, dest any, query string, args ...any) error {
	return wrapError(sqlx.GetContext(ctx, r.q, dest, r.q.Rebind(query), args...))
}

func (r *Repository) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return wrapError(sqlx.SelectContext(ctx, r.q, dest, r.q.Rebind(query), args...))
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(query), args...)
	return res, wrapError(err)
}

// execOne runs a statement that must affect exactly one existing row.
func (r *Repository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Nullable maps a nil pointer to SQL NULL and dereferences anything else.
func Nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Changes collects column assignments for a partial update. Column names
// come from code, never from request input.
type Changes struct {
	cols []string
	args []any
}

// Set assigns value to column.
func (c *Changes) Set(column string, value any) {
	c.cols = append(c.cols, column)
	c.args = append(c.args, value)
}

// Len returns the number of assignments.
func (c *Changes) Len() int {
	return len(c.cols)
}

// Has reports whether column is assigned.
func (c *Changes) Has(column string) bool {
	for _, col := range c.cols {
		if col == column {
			return true
		}
	}
	return false
}

// updateOne applies changes plus updated_at to the row with the given id.
func (r *Repository) updateOne(ctx context.Context, table, id string, c Changes, now any) error {
	assignments := make([]string, 0, len(c.cols)+1)
	for _, col := range c.cols {
		assignments = append(assignments, col+" = ?")
	}
	assignments = append(assignments, "updated_at = ?")

	args := make([]any, 0, len(c.args)+2)
	args = append(args, c.args...)
	args = append(args, now, id)

	query := "UPDATE " + table + " SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	return r.execOne(ctx, query, args...)
}
