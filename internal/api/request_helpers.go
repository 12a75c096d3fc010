package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrInvalidID)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, MsgInvalidTaskID, domain.ErrInvalidID)
	}
	return id, nil
}

// handleUserIDAndTaskID extracts the authenticated user's id and the {id}
// path parameter, writing the error response itself when either is missing.
func handleUserIDAndTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())

	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		log.Debug("invalid task id", slog.String("value", chi.URLParam(r, "id")))
		shared.RespondWithFieldErrors(w, r, shared.LocationParams, []domain.FieldError{{
			Field:   "id",
			Message: MsgInvalidTaskID,
			Value:   chi.URLParam(r, "id"),
		}})
		return uuid.Nil, uuid.Nil, false
	}

	return userID, taskID, true
}

// parseTaskFilter reads the listing query string. Unknown enum values and
// non-positive paging values are rejected; a limit above MaxPageSize is
// clamped.
func parseTaskFilter(r *http.Request, userID uuid.UUID) (store.TaskFilter, []domain.FieldError) {
	q := r.URL.Query()
	filter := store.TaskFilter{UserID: userID, Page: 1, Limit: store.DefaultPageSize}
	verr := &domain.ValidationError{}

	if v := q.Get("status"); v != "" {
		status := domain.TaskStatus(v)
		if status.IsValid() {
			filter.Status = &status
		} else {
			verr.Add("status", domain.MsgStatus, v)
		}
	}
	if v := q.Get("priority"); v != "" {
		priority := domain.Priority(v)
		if priority.IsValid() {
			filter.Priority = &priority
		} else {
			verr.Add("priority", domain.MsgPriority, v)
		}
	}
	if v := q.Get("sortBy"); v != "" {
		if field, ok := store.ParseSortField(v); ok {
			filter.SortBy = field
		} else {
			verr.Add("sortBy", "sortBy must be one of createdAt, updatedAt, dueDate, title, priority, status, completedAt", v)
		}
	}
	if v := q.Get("sortOrder"); v != "" {
		switch order := store.SortOrder(strings.ToLower(v)); order {
		case store.SortAsc, store.SortDesc:
			filter.SortOrder = order
		default:
			verr.Add("sortOrder", "sortOrder must be asc or desc", v)
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Page = n
		} else {
			verr.Add("page", "page must be a positive integer", v)
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		} else {
			verr.Add("limit", "limit must be a positive integer", v)
		}
	}

	filter.Normalize()
	return filter, verr.Fields
}

// patchFields lists the body keys an update may carry; everything else is ignored.
var patchFields = []string{"title", "description", "priority", "status", "dueDate"}

// hasOperatorKey reports whether any top-level key is a "$" operator.
func hasOperatorKey(body map[string]json.RawMessage) bool {
	for k := range body {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// buildTaskPatch copies the allow-listed fields of body by value into a
// typed patch. A JSON null clears dueDate and leaves the other fields
// untouched.
func buildTaskPatch(body map[string]json.RawMessage) (domain.TaskPatch, *domain.ValidationError) {
	var patch domain.TaskPatch
	verr := &domain.ValidationError{}

	for _, key := range patchFields {
		raw, ok := body[key]
		if !ok {
			continue
		}
		if isJSONNull(raw) {
			if key == "dueDate" {
				patch.ClearDueDate = true
			}
			continue
		}

		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			verr.Add(key, taskMessages[key], string(raw))
			continue
		}

		switch key {
		case "title":
			patch.Title = &s
		case "description":
			patch.Description = &s
		case "priority":
			p := domain.Priority(s)
			patch.Priority = &p
		case "status":
			st := domain.TaskStatus(s)
			patch.Status = &st
		case "dueDate":
			due, err := shared.ParseISO8601(s)
			if err != nil {
				verr.Add(key, domain.MsgDueDate, s)
				continue
			}
			patch.DueDate = &due
		}
	}

	if verr.HasErrors() {
		return domain.TaskPatch{}, verr
	}
	return patch, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
