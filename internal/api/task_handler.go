package api

import (
	"encoding/json"
	"net/http"

	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/service"
)

// TaskHandler handles the owner-scoped task endpoints.
type TaskHandler struct {
	tasks service.TaskService
}

// NewTaskHandler creates a TaskHandler backed by tasks.
func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter, fieldErrs := parseTaskFilter(r, userID)
	if len(fieldErrs) > 0 {
		shared.RespondWithFieldErrors(w, r, shared.LocationQuery, fieldErrs)
		return
	}

	page, err := h.tasks.List(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, MsgFetchTasksFailed)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Tasks: page.Tasks,
		Pagination: Pagination{
			Current: page.Page,
			Pages:   page.Pages,
			Total:   page.Total,
		},
	})
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, MsgFetchTaskFailed)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{Task: task})
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, MsgInvalidFormat, err)
		return
	}
	if err := shared.ValidateRequest(req, taskMessages); err != nil {
		HandleAPIError(w, r, err, MsgCreateTaskFailed)
		return
	}

	input := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(req.Priority),
		Status:      domain.TaskStatus(req.Status),
	}
	if req.DueDate != nil {
		// Already checked by the iso8601 rule.
		due, _ := shared.ParseISO8601(*req.DueDate)
		input.DueDate = &due
	}

	task, err := h.tasks.Create(r.Context(), userID, input)
	if err != nil {
		HandleAPIError(w, r, err, MsgCreateTaskFailed)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, TaskResponse{Message: MsgTaskCreated, Task: task})
}

// Update handles PUT /api/tasks/{id}. The body is never handed to the store:
// it is read into raw fields, screened for "$" operator keys and copied by
// value into a typed patch.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndTaskID(w, r)
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, MsgInvalidFormat, err)
		return
	}
	if hasOperatorKey(body) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, MsgUpdateOperators, nil,
			shared.WithElevatedLogLevel())
		return
	}

	patch, verr := buildTaskPatch(body)
	if verr != nil {
		shared.RespondWithFieldErrors(w, r, shared.LocationBody, verr.Fields)
		return
	}

	task, err := h.tasks.Update(r.Context(), userID, taskID, patch)
	if err != nil {
		HandleAPIError(w, r, err, MsgUpdateTaskFailed)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{Message: MsgTaskUpdated, Task: task})
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, MsgDeleteTaskFailed)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: MsgTaskDeleted})
}

// Stats handles GET /api/tasks/stats.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	stats, err := h.tasks.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, MsgFetchStatsFailed)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
