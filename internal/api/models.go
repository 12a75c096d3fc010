package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	// The upper bound is in bytes and enforced by domain.User.Validate.
	Password string `json:"password" validate:"required,min=6"`
}

var registerMessages = map[string]string{
	"username": "Username must be 3-30 characters and contain only letters, numbers, and underscores",
	"email":    "Please provide a valid email",
	"password": domain.MsgPasswordTooShort,
}

// LoginRequest defines the payload for the login endpoint. Username accepts
// either a username or an email address.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"username": "Username or email is required",
	"password": "Password is required",
}

// CreateTaskRequest defines the payload for creating a task. Any userId in
// the body is ignored.
type CreateTaskRequest struct {
	Title       string  `json:"title"       validate:"required,max=100"`
	Description string  `json:"description" validate:"max=200"`
	Priority    string  `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Status      string  `json:"status"      validate:"omitempty,taskstatus"`
	DueDate     *string `json:"dueDate"     validate:"omitempty,iso8601"`
}

var taskMessages = map[string]string{
	"title":       domain.MsgTitle,
	"description": domain.MsgDescription,
	"priority":    domain.MsgPriority,
	"status":      domain.MsgStatus,
	"dueDate":     domain.MsgDueDate,
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// ProfileResponse is returned by the profile endpoint.
type ProfileResponse struct {
	User UserResponse `json:"user"`
}

// MessageResponse carries only a confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// TaskResponse wraps a single task, with a message after mutations.
type TaskResponse struct {
	Message string       `json:"message,omitempty"`
	Task    *domain.Task `json:"task"`
}

// Pagination describes the page returned by a task listing.
type Pagination struct {
	Current int   `json:"current"`
	Pages   int64 `json:"pages"`
	Total   int64 `json:"total"`
}

// TaskListResponse is one page of tasks.
type TaskListResponse struct {
	Tasks      []*domain.Task `json:"tasks"`
	Pagination Pagination     `json:"pagination"`
}

// StatsResponse groups a user's tasks by status and priority.
type StatsResponse = store.TaskStats

// HealthResponse reports liveness and database connectivity.
type HealthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Env    string `json:"env"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}
