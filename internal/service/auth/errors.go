package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token signature doesn't match or the token
	// is otherwise not acceptable.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMalformedToken indicates the input is not a well-formed JWT.
	ErrMalformedToken = errors.New("malformed authentication token")

	// ErrConfiguration indicates the service cannot sign or verify tokens
	// because no signing secret is configured. This is a server fault.
	ErrConfiguration = errors.New("token signing secret is not configured")
)
