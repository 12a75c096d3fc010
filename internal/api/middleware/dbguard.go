package middleware

import (
	"context"
	"net/http"

	"github.com/phrazzld/taskmanager-api/internal/api/shared"
)

// MsgDatabaseUnavailable is the body of a 503 response from DatabaseGuard.
const MsgDatabaseUnavailable = "Service temporarily unavailable: database not connected"

// HealthChecker reports whether the backing database is reachable.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// DatabaseGuard answers 503 while checker reports the database as down.
// With skip set (test environment) every request passes.
func DatabaseGuard(checker HealthChecker, skip bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if skip || checker == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := checker.CheckHealth(r.Context()); err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, MsgDatabaseUnavailable, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
