package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// It handles domain validation and password hashing internally: the
	// plaintext Password is hashed into HashedPassword and cleared before
	// the record is written.
	// Returns ErrUserExists if the username or email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByLogin retrieves a user whose username equals login or whose
	// email equals the normalized login.
	// Returns ErrUserNotFound if no user matches.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)

	// ExistsByUsernameOrEmail reports whether any user already holds the
	// given username or the given (normalized) email.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}
