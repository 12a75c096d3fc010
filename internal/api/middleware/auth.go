package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// Client-facing authentication failures.
const (
	MsgNoToken         = "Access Denied. No token provided"
	MsgInvalidToken    = "Invalid token"
	MsgTokenExpired    = "Token expired"
	MsgUserUnavailable = "User not found or inactive."
	MsgAuthError       = "Authentication error"
)

// UserLookup loads the account a token was issued for.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
	users      UserLookup
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
	}
}

// Authenticate validates the bearer token, loads the active user it names and
// attaches the sanitized user, its id and the raw token to the request
// context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, MsgNoToken)
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, MsgTokenExpired)
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMalformedToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, MsgInvalidToken)
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, MsgAuthError, err)
			}
			return
		}

		user, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if store.IsNotFoundError(err) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, MsgUserUnavailable)
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, MsgAuthError, err)
			return
		}
		if !user.IsActive {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, MsgUserUnavailable, nil,
				shared.WithElevatedLogLevel())
			return
		}

		ctx := shared.WithAuthenticatedUser(r.Context(), user, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUserID extracts the user ID from the request context.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	return shared.GetUserID(r.Context())
}
