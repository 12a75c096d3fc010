// Package mocks provides centralized mock implementations for testing.
//
// Store mocks are built on testify/mock so tests can set expectations with
// On(...).Return(...). Service-level collaborators (token service, password
// hasher, stats cache, health checker) use function fields with default
// return values instead:
//
//	jwtService := &mocks.MockJWTService{
//	    GenerateTokenFn: func(ctx context.Context, userID uuid.UUID) (string, error) {
//	        return "mocked-token", nil
//	    },
//	}
package mocks
