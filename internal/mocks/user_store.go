package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockUserStore is a mock of store.UserStore interface for use with testify/mock
type MockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*MockUserStore)(nil)

// Create is a mock implementation of store.UserStore.Create
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID is a mock implementation of store.UserStore.GetByID
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetByLogin is a mock implementation of store.UserStore.GetByLogin
func (m *MockUserStore) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	args := m.Called(ctx, login)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// ExistsByUsernameOrEmail is a mock implementation of store.UserStore.ExistsByUsernameOrEmail
func (m *MockUserStore) ExistsByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}
