package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/service"
)

// MockUserService implements service.UserService with overridable functions.
type MockUserService struct {
	RegisterFn   func(ctx context.Context, username, email, password string) (*service.AuthResult, error)
	LoginFn      func(ctx context.Context, login, password string) (*service.AuthResult, error)
	GetProfileFn func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

var _ service.UserService = (*MockUserService)(nil)

// Register implements service.UserService.
func (m *MockUserService) Register(
	ctx context.Context,
	username, email, password string,
) (*service.AuthResult, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, username, email, password)
	}
	return nil, nil
}

// Login implements service.UserService.
func (m *MockUserService) Login(ctx context.Context, login, password string) (*service.AuthResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, login, password)
	}
	return nil, nil
}

// GetProfile implements service.UserService.
func (m *MockUserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.GetProfileFn != nil {
		return m.GetProfileFn(ctx, userID)
	}
	return nil, nil
}
