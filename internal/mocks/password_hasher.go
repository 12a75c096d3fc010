package mocks

import (
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
)

// MockPasswordHasher implements auth.PasswordHasher for testing.
// Hash returns "hashed:" + password unless HashFn is set; Compare succeeds
// when ShouldSucceed is true and returns auth.ErrPasswordMismatch otherwise.
type MockPasswordHasher struct {
	ShouldSucceed bool

	HashFn    func(password string) (string, error)
	CompareFn func(hashedPassword, password string) error

	// CompareCalledWith stores the arguments passed to Compare for verification
	CompareCalledWith struct {
		HashedPassword string
		Password       string
	}

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return "hashed:" + password, nil
}

// Compare implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	m.CompareCalledWith.HashedPassword = hashedPassword
	m.CompareCalledWith.Password = password
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if m.ShouldSucceed {
		return nil
	}
	return auth.ErrPasswordMismatch
}
