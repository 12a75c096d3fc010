package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/stretchr/testify/require"
)

func testUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Username:  "alice",
		Email:     "alice@example.com",
		IsActive:  true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// newRequest builds a request with an optional JSON body and, when user is
// set, the context the auth middleware would attach.
func newRequest(t *testing.T, method, target string, body any, user *domain.User) *http.Request {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(shared.WithAuthenticatedUser(req.Context(), user, "test-token"))
	}
	return req
}

// serve routes req through a chi router so URL parameters are populated.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
