package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrInvalidCredentials indicates the login did not match any user or
	// the password was wrong. The two cases are deliberately indistinguishable.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInactiveAccount indicates the credentials were correct but the
	// account has been deactivated.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInactiveAccount = errors.New("account is inactive")
)
