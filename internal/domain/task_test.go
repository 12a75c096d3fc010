package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestNewTask_Defaults(t *testing.T) {
	userID := uuid.New()

	task, err := NewTask(userID, "  Buy milk  ", "", "", "", nil, testNow)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.Title != "Buy milk" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("Expected default priority medium, got %q", task.Priority)
	}
	if task.Status != StatusPending {
		t.Errorf("Expected default status Pending, got %q", task.Status)
	}
	if task.Completed || task.CompletedAt != nil {
		t.Error("Expected a pending task to be incomplete")
	}
	if task.UserID != userID {
		t.Error("Expected owner to be set")
	}
	if !task.CreatedAt.Equal(testNow) {
		t.Errorf("Expected CreatedAt %v, got %v", testNow, task.CreatedAt)
	}
}

func TestNewTask_CreatedCompleted(t *testing.T) {
	task, err := NewTask(uuid.New(), "Done already", "", PriorityHigh, StatusCompleted, nil, testNow)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !task.Completed {
		t.Error("Expected completed to be derived from status")
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(testNow) {
		t.Errorf("Expected CompletedAt %v, got %v", testNow, task.CompletedAt)
	}
}

func TestNewTask_Invalid(t *testing.T) {
	past := testNow.Add(-time.Hour)

	tests := []struct {
		name        string
		userID      uuid.UUID
		title       string
		description string
		priority    Priority
		status      TaskStatus
		dueDate     *time.Time
		wantField   string
	}{
		{"missing owner", uuid.Nil, "title", "", "", "", nil, "userId"},
		{"blank title", uuid.New(), "   ", "", "", "", nil, "title"},
		{"title too long", uuid.New(), strings.Repeat("t", 101), "", "", "", nil, "title"},
		{"description too long", uuid.New(), "ok", strings.Repeat("d", 201), "", "", nil, "description"},
		{"unknown priority", uuid.New(), "ok", "", "urgent", "", nil, "priority"},
		{"unknown status", uuid.New(), "ok", "", "", "Done", nil, "status"},
		{"due date in the past", uuid.New(), "ok", "", "", "", &past, "dueDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(tt.userID, tt.title, tt.description, tt.priority, tt.status, tt.dueDate, testNow)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *ValidationError, got %v", err)
			}
			if verr.Fields[0].Field != tt.wantField {
				t.Errorf("Expected field %q, got %+v", tt.wantField, verr.Fields)
			}
		})
	}
}

func TestNewTask_TitleLengthCountsRunes(t *testing.T) {
	title := strings.Repeat("é", MaxTitleLength)
	if _, err := NewTask(uuid.New(), title, "", "", "", nil, testNow); err != nil {
		t.Errorf("Expected a 100 rune title to be valid, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	task := &Task{Status: StatusPending}

	task.SetStatus(StatusCompleted, testNow)
	if !task.Completed || task.CompletedAt == nil {
		t.Fatal("Expected completion fields to be set when entering Completed")
	}
	firstCompletion := *task.CompletedAt

	task.SetStatus(StatusCompleted, testNow.Add(time.Hour))
	if !task.CompletedAt.Equal(firstCompletion) {
		t.Error("Expected CompletedAt to be kept when status stays Completed")
	}

	task.SetStatus(StatusInProgress, testNow.Add(2*time.Hour))
	if task.Completed || task.CompletedAt != nil {
		t.Error("Expected completion fields to be cleared when leaving Completed")
	}
	if task.Status != StatusInProgress {
		t.Errorf("Expected status In Progress, got %q", task.Status)
	}
}

func TestApply(t *testing.T) {
	due := testNow.Add(24 * time.Hour)
	task := &Task{
		Title:    "Old",
		Priority: PriorityLow,
		Status:   StatusPending,
		DueDate:  &due,
	}
	title := " New title "
	status := StatusCompleted

	task.Apply(TaskPatch{Title: &title, Status: &status, ClearDueDate: true}, testNow)

	if task.Title != "New title" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Priority != PriorityLow {
		t.Error("Expected untouched fields to keep their value")
	}
	if task.DueDate != nil {
		t.Error("Expected due date to be cleared")
	}
	if !task.Completed || task.CompletedAt == nil {
		t.Error("Expected completion fields to follow the status")
	}
	if !task.UpdatedAt.Equal(testNow) {
		t.Error("Expected UpdatedAt to be bumped")
	}
}

func TestTaskPatchValidate(t *testing.T) {
	empty := ""
	bad := Priority("urgent")
	past := testNow.Add(-time.Minute)
	okStatus := StatusInProgress

	if err := (TaskPatch{Status: &okStatus}).Validate(testNow); err != nil {
		t.Errorf("Expected valid patch, got %v", err)
	}
	if err := (TaskPatch{}).Validate(testNow); err != nil {
		t.Errorf("Expected empty patch to be valid, got %v", err)
	}

	err := TaskPatch{Title: &empty, Priority: &bad, DueDate: &past}.Validate(testNow)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Errorf("Expected 3 field errors, got %+v", verr.Fields)
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := NewValidationError("id", "Invalid task ID", ErrInvalidID)

	if !errors.Is(err, ErrValidation) {
		t.Error("Expected ValidationError to match ErrValidation")
	}
	if !errors.Is(err, ErrInvalidID) {
		t.Error("Expected ValidationError to match its cause")
	}
	if !strings.Contains(err.Error(), "Invalid task ID") {
		t.Errorf("Expected message in error text, got %q", err.Error())
	}
}
