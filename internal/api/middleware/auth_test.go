package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/mocks"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	active := &domain.User{ID: userID, Username: "alice", HashedPassword: "hash", IsActive: true}
	inactive := &domain.User{ID: userID, Username: "alice", HashedPassword: "hash", IsActive: false}

	tests := []struct {
		name           string
		authHeader     string
		validateErr    error
		user           *domain.User
		lookupErr      error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			user:           active,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing auth header",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  MsgNoToken,
		},
		{
			name:           "not a bearer header",
			authHeader:     "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  MsgNoToken,
		},
		{
			name:           "empty bearer token",
			authHeader:     "Bearer   ",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  MsgNoToken,
		},
		{
			name:           "expired token",
			authHeader:     "Bearer expired-token",
			validateErr:    auth.ErrExpiredToken,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  MsgTokenExpired,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid-token",
			validateErr:    auth.ErrInvalidToken,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  MsgInvalidToken,
		},
		{
			name:           "malformed token",
			authHeader:     "Bearer abc",
			validateErr:    auth.ErrMalformedToken,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  MsgInvalidToken,
		},
		{
			name:           "missing signing secret",
			authHeader:     "Bearer valid-token",
			validateErr:    auth.ErrConfiguration,
			expectedStatus: http.StatusInternalServerError,
			expectedError:  MsgAuthError,
		},
		{
			name:           "user deleted",
			authHeader:     "Bearer valid-token",
			lookupErr:      store.ErrUserNotFound,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  MsgUserUnavailable,
		},
		{
			name:           "user inactive",
			authHeader:     "Bearer valid-token",
			user:           inactive,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  MsgUserUnavailable,
		},
		{
			name:           "user lookup fails",
			authHeader:     "Bearer valid-token",
			lookupErr:      errors.New("connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  MsgAuthError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			jwtService := &mocks.MockJWTService{
				Claims:      &auth.Claims{UserID: userID},
				ValidateErr: tc.validateErr,
			}
			users := &mocks.MockUserStore{}
			if tc.user != nil || tc.lookupErr != nil {
				users.On("GetByID", mock.Anything, userID).Return(tc.user, tc.lookupErr)
			}

			var reached bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				user, ok := shared.GetUser(r.Context())
				require.True(t, ok)
				assert.Empty(t, user.HashedPassword)
				id, ok := GetUserID(r)
				require.True(t, ok)
				assert.Equal(t, userID, id)
				assert.Equal(t, "valid-token", shared.GetToken(r.Context()))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()

			NewAuthMiddleware(jwtService, users).Authenticate(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectedStatus == http.StatusOK, reached)
			if tc.expectedError != "" {
				assert.Contains(t, rr.Body.String(), tc.expectedError)
			}
			users.AssertExpectations(t)
		})
	}
}
