package mocks

import "context"

// MockHealthChecker reports a fixed health state.
type MockHealthChecker struct {
	Err error
}

// CheckHealth returns m.Err.
func (m *MockHealthChecker) CheckHealth(context.Context) error {
	return m.Err
}
