package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "no rows", err: sql.ErrNoRows, wantErr: store.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: uniqueViolationCode}, wantErr: store.ErrDuplicate},
		{name: "foreign key violation", err: &pgconn.PgError{Code: foreignKeyViolationCode}, wantErr: store.ErrInvalidEntity},
		{name: "check violation", err: &pgconn.PgError{Code: checkViolationCode}, wantErr: store.ErrInvalidEntity},
		{name: "not null violation", err: &pgconn.PgError{Code: notNullViolationCode}, wantErr: store.ErrInvalidEntity},
		{
			name:    "email constraint",
			err:     &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "users_email_key"},
			wantErr: store.ErrUserExists,
		},
		{
			name:    "completion constraint",
			err:     &pgconn.PgError{Code: checkViolationCode, ConstraintName: "tasks_completion_consistent"},
			wantErr: store.ErrInvalidEntity,
		},
		{name: "query canceled", err: &pgconn.PgError{Code: queryCanceledCode}, wantErr: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapError(tt.err), tt.wantErr)
		})
	}

	assert.NoError(t, MapError(nil))

	other := errors.New("something else")
	assert.Equal(t, other, MapError(other))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("generic error")))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(sqlmock.NewResult(0, 1), store.ErrTaskNotFound))
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), nil), store.ErrNotFound)
	assert.Error(t, CheckRowsAffected(sqlmock.NewErrorResult(errors.New("boom")), nil))
}
