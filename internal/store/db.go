package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBTX is an interface that abstracts the SQL access layer.
// It is implemented by both *sqlx.DB and *sqlx.Tx, allowing SQL stores
// to work with either a database connection or a transaction.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}
