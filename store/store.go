// Package store holds the persistence layer: raw parameterized SQL
// behind small injectable repositories.
package store

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateCard      = errors.New("card already exists")
	ErrTokenNotRecognized = errors.New("refresh token not recognized")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository
// can run standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction, rolling back on error.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
