package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// AuthResult is the outcome of a successful registration or login.
type AuthResult struct {
	User  *domain.User
	Token string
}

// UserService provides account operations.
type UserService interface {
	// Register creates a new account and issues a token for it.
	// Returns a *domain.ValidationError for invalid input and
	// store.ErrUserExists when the username or email is taken.
	Register(ctx context.Context, username, email, password string) (*AuthResult, error)

	// Login authenticates by username or email and issues a token.
	// Returns ErrInvalidCredentials or ErrInactiveAccount on rejection.
	Login(ctx context.Context, login, password string) (*AuthResult, error)

	// GetProfile retrieves the user with the given id.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore  store.UserStore
	hasher     auth.PasswordHasher
	jwtService auth.JWTService
	logger     *slog.Logger

	dummyOnce sync.Once
	dummy     string
}

// dummyPassword is hashed once and compared against when a login names no
// known user, so both failures cost one hash comparison.
const dummyPassword = "taskmanager-login-timing"

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	jwtService auth.JWTService,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore:  userStore,
		hasher:     hasher,
		jwtService: jwtService,
		logger:     logger.With("component", "user_service"),
	}
}

// Register implements UserService.Register.
func (s *UserServiceImpl) Register(
	ctx context.Context,
	username, email, password string,
) (*AuthResult, error) {
	user, err := domain.NewUser(username, email, password)
	if err != nil {
		s.logger.Debug("registration rejected by validation", "error", err)
		return nil, err
	}

	exists, err := s.userStore.ExistsByUsernameOrEmail(ctx, user.Username, user.Email)
	if err != nil {
		s.logger.Error("failed to check for existing user", "error", err)
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}
	if exists {
		s.logger.Debug("attempted to register an existing username or email",
			"username", user.Username)
		return nil, store.ErrUserExists
	}

	// The store hashes the password before the record is written.
	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			s.logger.Debug("lost registration race on unique index",
				"username", user.Username)
			return nil, store.ErrUserExists
		}
		s.logger.Error("failed to save user", "error", err, "username", user.Username)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to issue token for new user", "error", err, "user_id", user.ID)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	return &AuthResult{User: user.Sanitized(), Token: token}, nil
}

// Login implements UserService.Login.
func (s *UserServiceImpl) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)

	user, err := s.userStore.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("login for unknown user")
			s.compareDummy(password)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for login", "error", err)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Debug("login with wrong password", "user_id", user.ID)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to verify password", "error", err, "user_id", user.ID)
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	// Only reported once the password is known to be right.
	if !user.IsActive {
		s.logger.Debug("login to inactive account", "user_id", user.ID)
		return nil, ErrInactiveAccount
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err, "user_id", user.ID)
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Debug("user logged in", "user_id", user.ID)

	return &AuthResult{User: user.Sanitized(), Token: token}, nil
}

// GetProfile implements UserService.GetProfile.
func (s *UserServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user.Sanitized(), nil
}

func (s *UserServiceImpl) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare dummy password hash", "error", err)
			return
		}
		s.dummy = hash
	})
	if s.dummy != "" {
		_ = s.hasher.Compare(s.dummy, password)
	}
}
