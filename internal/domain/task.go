package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Task field constraints.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 200
)

// Validation messages shared by the domain and the request validators.
const (
	MsgTitle       = "Title is required and must be 1-100 characters"
	MsgDescription = "Description cannot exceed 200 characters"
	MsgPriority    = "Priority must be low, medium, or high"
	MsgStatus      = "Status must be Pending, In Progress, or Completed"
	MsgDueDate     = "Due date must be a valid ISO 8601 date"
	MsgDueDatePast = "Due date cannot be in the past"
)

// Priority is the urgency of a task.
type Priority string

// Valid task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every valid priority.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskStatus is the progress state of a task.
type TaskStatus string

// Valid task statuses.
const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Statuses lists every valid status.
func Statuses() []TaskStatus {
	return []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}
}

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user.
//
// Completed and CompletedAt are derived from Status and are only changed
// through SetStatus (or the equivalent store-side update).
type Task struct {
	ID          uuid.UUID  `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	UserID      uuid.UUID  `json:"userId"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTask creates a task for userID. Empty priority and status take their
// defaults (medium, Pending); title and description are trimmed.
func NewTask(
	userID uuid.UUID,
	title, description string,
	priority Priority,
	status TaskStatus,
	dueDate *time.Time,
	now time.Time,
) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}
	if status == "" {
		status = StatusPending
	}

	now = now.UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Priority:    priority,
		Status:      StatusPending,
		DueDate:     utcPtr(dueDate),
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.SetStatus(status, now)

	if err := task.Validate(now); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the task against its field rules. The due date may not be
// earlier than now.
func (t *Task) Validate(now time.Time) error {
	verr := &ValidationError{}

	if t.UserID == uuid.Nil {
		verr.Add("userId", "Task must belong to a user", nil)
	}
	if n := utf8.RuneCountInString(t.Title); n < 1 || n > MaxTitleLength {
		verr.Add("title", MsgTitle, t.Title)
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		verr.Add("description", MsgDescription, t.Description)
	}
	if !t.Priority.IsValid() {
		verr.Add("priority", MsgPriority, string(t.Priority))
	}
	if !t.Status.IsValid() {
		verr.Add("status", MsgStatus, string(t.Status))
	}
	if t.DueDate != nil && t.DueDate.Before(now) {
		verr.Add("dueDate", MsgDueDatePast, t.DueDate.Format(time.RFC3339))
	}

	return verr.OrNil()
}

// SetStatus changes the status and keeps the derived completion fields in
// step: entering Completed stamps CompletedAt with now, leaving it clears
// both, and staying Completed keeps the original timestamp.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	switch {
	case status == StatusCompleted && t.Status != StatusCompleted:
		completedAt := now.UTC()
		t.Completed = true
		t.CompletedAt = &completedAt
	case status != StatusCompleted:
		t.Completed = false
		t.CompletedAt = nil
	}
	t.Status = status
}

// Apply copies the fields set in p onto the task and bumps UpdatedAt.
func (t *Task) Apply(p TaskPatch, now time.Time) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		t.DueDate = utcPtr(p.DueDate)
	}
	if p.Status != nil {
		t.SetStatus(*p.Status, now)
	}
	t.UpdatedAt = now.UTC()
}

// TaskPatch is the allow-listed set of task fields a client may change.
// A nil field is left untouched; ClearDueDate removes the due date.
type TaskPatch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	Status       *TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
}

// Normalize trims text fields in place.
func (p *TaskPatch) Normalize() {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Description != nil {
		description := strings.TrimSpace(*p.Description)
		p.Description = &description
	}
	p.DueDate = utcPtr(p.DueDate)
}

// Validate checks every field present in the patch.
func (p TaskPatch) Validate(now time.Time) error {
	verr := &ValidationError{}

	if p.Title != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(*p.Title)); n < 1 || n > MaxTitleLength {
			verr.Add("title", MsgTitle, *p.Title)
		}
	}
	if p.Description != nil && utf8.RuneCountInString(strings.TrimSpace(*p.Description)) > MaxDescriptionLength {
		verr.Add("description", MsgDescription, *p.Description)
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		verr.Add("priority", MsgPriority, string(*p.Priority))
	}
	if p.Status != nil && !p.Status.IsValid() {
		verr.Add("status", MsgStatus, string(*p.Status))
	}
	if p.DueDate != nil && p.DueDate.Before(now) {
		verr.Add("dueDate", MsgDueDatePast, p.DueDate.Format(time.RFC3339))
	}

	return verr.OrNil()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
