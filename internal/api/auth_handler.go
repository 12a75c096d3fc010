package api

import (
	"net/http"

	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/service"
)

// AuthHandler handles registration, login and profile requests.
type AuthHandler struct {
	users service.UserService
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, MsgInvalidFormat, err)
		return
	}

	if err := shared.ValidateRequest(req, registerMessages); err != nil {
		HandleAPIError(w, r, err, MsgRegisterFailed)
		return
	}

	result, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, MsgRegisterFailed)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		Message: MsgRegistered,
		Token:   result.Token,
		User:    newUserResponse(result.User),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, MsgInvalidFormat, err)
		return
	}

	if err := shared.ValidateRequest(req, loginMessages); err != nil {
		HandleAPIError(w, r, err, MsgLoginFailed)
		return
	}

	result, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, MsgLoginFailed)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		Message: MsgLoggedIn,
		Token:   result.Token,
		User:    newUserResponse(result.User),
	})
}

// Profile handles GET /api/auth/profile. The middleware has already loaded
// the user; it is returned from the request context.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.GetUser(r.Context())
	if !ok {
		userID, ok := shared.GetUserID(r.Context())
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var err error
		if user, err = h.users.GetProfile(r.Context(), userID); err != nil {
			HandleAPIError(w, r, err, MsgFetchProfileError)
			return
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ProfileResponse{User: profileOf(user)})
}

func profileOf(u *domain.User) UserResponse {
	resp := newUserResponse(u)
	createdAt := u.CreatedAt
	resp.CreatedAt = &createdAt
	return resp
}
