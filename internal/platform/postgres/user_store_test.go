package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/mocks"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "hashed_password", "is_active", "created_at", "updated_at",
	})
}

func TestPostgresUserStore_Create(t *testing.T) {
	t.Parallel()

	insert := regexp.QuoteMeta(
		"INSERT INTO users (id,username,email,hashed_password,is_active,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7)",
	)

	t.Run("hashes password before insert", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		user, err := domain.NewUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		mock.ExpectExec(insert).
			WithArgs(user.ID, "alice", "alice@example.com", "hashed:secret123", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := NewPostgresUserStore(db, &mocks.MockPasswordHasher{}, nil)
		require.NoError(t, s.Create(context.Background(), user))
		assert.Empty(t, user.Password)
		assert.Equal(t, "hashed:secret123", user.HashedPassword)
	})

	t.Run("unique violation", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		user, err := domain.NewUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		mock.ExpectExec(insert).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "users_email_key"})

		err = NewPostgresUserStore(db, &mocks.MockPasswordHasher{}, nil).Create(context.Background(), user)
		assert.ErrorIs(t, err, store.ErrUserExists)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("invalid user never reaches the database", func(t *testing.T) {
		t.Parallel()
		db, _ := newMockDB(t)
		user := &domain.User{ID: uuid.New(), Username: "x", Email: "bad", Password: "secret123"}

		err := NewPostgresUserStore(db, &mocks.MockPasswordHasher{}, nil).Create(context.Background(), user)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("hash failure", func(t *testing.T) {
		t.Parallel()
		db, _ := newMockDB(t)
		user, err := domain.NewUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)
		hashErr := errors.New("hash failed")
		hasher := &mocks.MockPasswordHasher{
			HashFn: func(string) (string, error) { return "", hashErr },
		}

		err = NewPostgresUserStore(db, hasher, nil).Create(context.Background(), user)
		assert.ErrorIs(t, err, hashErr)
	})
}

func TestPostgresUserStore_GetByLogin(t *testing.T) {
	t.Parallel()

	query := regexp.QuoteMeta("FROM users WHERE (username = $1 OR email = $2) LIMIT 1")
	now := time.Now().UTC()

	t.Run("matches username or normalized email", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		id := uuid.New()
		mock.ExpectQuery(query).
			WithArgs(" Alice@Example.COM ", "alice@example.com").
			WillReturnRows(userRows().AddRow(id.String(), "alice", "alice@example.com", "hash", true, now, now))

		user, err := NewPostgresUserStore(db, &mocks.MockPasswordHasher{}, nil).
			GetByLogin(context.Background(), " Alice@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "hash", user.HashedPassword)
		assert.True(t, user.IsActive)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		mock.ExpectQuery(query).WillReturnError(sql.ErrNoRows)

		_, err := NewPostgresUserStore(db, &mocks.MockPasswordHasher{}, nil).
			GetByLogin(context.Background(), "nobody")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})
}

func TestPostgresUserStore_GetByID(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 LIMIT 1")).
		WithArgs(id.String()).
		WillReturnRows(userRows().AddRow(id.String(), "alice", "alice@example.com", "hash", false, now, now))

	user, err := NewPostgresUserStore(db, &mocks.MockPasswordHasher{}, nil).GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsActive)
}

func TestPostgresUserStore_ExistsByUsernameOrEmail(t *testing.T) {
	t.Parallel()

	query := regexp.QuoteMeta("SELECT EXISTS ( SELECT 1 FROM users WHERE (username = $1 OR email = $2) )")

	for _, exists := range []bool{true, false} {
		exists := exists
		t.Run("", func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			mock.ExpectQuery(query).
				WithArgs("alice", "alice@example.com").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))

			got, err := NewPostgresUserStore(db, &mocks.MockPasswordHasher{}, nil).
				ExistsByUsernameOrEmail(context.Background(), "alice", "ALICE@example.com")
			require.NoError(t, err)
			assert.Equal(t, exists, got)
		})
	}
}
