package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// psql builds statements with PostgreSQL $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{
	"id", "username", "email", "hashed_password", "is_active", "created_at", "updated_at",
}

type userRow struct {
	ID             uuid.UUID `db:"id"`
	Username       string    `db:"username"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email,
		HashedPassword: r.HashedPassword,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	hasher auth.PasswordHasher
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(
	db store.DBTX,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		hasher: hasher,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// Create implements store.UserStore.Create.
// It validates the user, hashes the plaintext password and inserts the row.
// Returns store.ErrUserExists on a username or email unique violation.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create", slog.String("error", err.Error()))
		return err
	}

	if user.Password != "" {
		hash, err := s.hasher.Hash(user.Password)
		if err != nil {
			log.Error("failed to hash password", slog.String("error", err.Error()))
			return err
		}
		user.HashedPassword = hash
		user.Password = ""
	}

	query, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Username,
			user.Email,
			user.HashedPassword,
			user.IsActive,
			user.CreatedAt,
			user.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if IsUniqueViolation(err) {
			log.Debug("username or email already registered",
				slog.String("username", user.Username))
			return store.ErrUserExists
		}
		log.Error("failed to insert user", slog.String("error", err.Error()))
		return store.NewStoreError("user", "create", "failed to insert user", MapError(err))
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, "get_by_id", sq.Eq{"id": id.String()})
}

// GetByLogin implements store.UserStore.GetByLogin.
func (s *PostgresUserStore) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return s.getOne(ctx, "get_by_login", sq.Or{
		sq.Eq{"username": login},
		sq.Eq{"email": domain.NormalizeEmail(login)},
	})
}

func (s *PostgresUserStore) getOne(ctx context.Context, op string, pred sq.Sqlizer) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := psql.Select(userColumns...).From("users").Where(pred).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var row userRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to query user", slog.String("operation", op), slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", op, "failed to query user", MapError(err))
	}

	return row.toDomain(), nil
}

// ExistsByUsernameOrEmail implements store.UserStore.ExistsByUsernameOrEmail.
func (s *PostgresUserStore) ExistsByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (bool, error) {
	query, args, err := psql.Select("1").
		From("users").
		Where(sq.Or{
			sq.Eq{"username": username},
			sq.Eq{"email": domain.NormalizeEmail(email)},
		}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists query: %w", err)
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to check user existence",
			slog.String("error", err.Error()))
		return false, store.NewStoreError("user", "exists", "failed to check user existence", MapError(err))
	}
	return exists, nil
}
