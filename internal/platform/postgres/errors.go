package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// SQLSTATE codes the stores react to.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
	queryCanceledCode       = "57014"
)

// constraintErrors names the sentinel for violations of known schema
// constraints (see migrations/).
var constraintErrors = map[string]error{
	"users_username_key":          store.ErrUserExists,
	"users_email_key":             store.ErrUserExists,
	"tasks_user_id_fkey":          store.ErrInvalidEntity,
	"tasks_priority_check":        store.ErrInvalidEntity,
	"tasks_status_check":          store.ErrInvalidEntity,
	"tasks_completion_consistent": store.ErrInvalidEntity,
}

// MapError translates a driver error into the matching store sentinel,
// keeping the original error in the chain for logging.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if sentinel, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%w: constraint %s: %v", sentinel, pgErr.ConstraintName, err)
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case foreignKeyViolationCode, checkViolationCode:
		return fmt.Errorf("%w: constraint %s: %v", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: column %s is required: %v", store.ErrInvalidEntity, pgErr.ColumnName, err)
	case queryCanceledCode:
		return fmt.Errorf("%w: %v", context.Canceled, err)
	}

	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected returns notFound when an UPDATE or DELETE matched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}
	return nil
}
