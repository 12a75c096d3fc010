package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// Client-facing messages.
const (
	MsgRegistered        = "User registered successfully"
	MsgLoggedIn          = "Login successful"
	MsgUserExists        = "User already exists with this email or username"
	MsgInvalidCreds      = "Invalid credentials"
	MsgInactiveAccount   = "Account is inactive"
	MsgTaskCreated       = "Task created successfully"
	MsgTaskUpdated       = "Task updated successfully"
	MsgTaskDeleted       = "Task deleted successfully"
	MsgTaskNotFound      = "Task not found"
	MsgInvalidTaskID     = "Invalid task ID"
	MsgUpdateOperators   = "Update operators are not allowed in the request body."
	MsgInvalidFormat     = "Invalid request format"
	MsgUnexpected        = "An unexpected error occurred"
	MsgFetchTasksFailed  = "Failed to fetch tasks"
	MsgFetchTaskFailed   = "Failed to fetch task"
	MsgCreateTaskFailed  = "Failed to create task"
	MsgUpdateTaskFailed  = "Failed to update task"
	MsgDeleteTaskFailed  = "Failed to delete task"
	MsgFetchStatsFailed  = "Failed to fetch statistics"
	MsgRegisterFailed    = "Registration failed"
	MsgLoginFailed       = "Login failed"
	MsgFetchProfileError = "Failed to fetch profile"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the error itself.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrUserExists):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMalformedToken),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInactiveAccount):
		return http.StatusUnauthorized

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return MsgUnexpected
	}

	switch {
	case errors.Is(err, store.ErrUserExists):
		return MsgUserExists
	case errors.Is(err, service.ErrInactiveAccount):
		return MsgInactiveAccount
	case errors.Is(err, service.ErrInvalidCredentials):
		return MsgInvalidCreds
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMalformedToken):
		return "Invalid token"
	case errors.Is(err, store.ErrTaskNotFound):
		return MsgTaskNotFound
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, domain.ErrValidation):
		return "Validation error"
	default:
		return MsgUnexpected
	}
}

// HandleAPIError writes the response for an error returned by a service.
// Validation errors become a field list; server errors are logged and answered
// with fallback (or a generic message) so no internal detail leaks.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		shared.RespondWithFieldErrors(w, r, shared.LocationBody, verr.Fields)
		return
	}

	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		msg = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}
