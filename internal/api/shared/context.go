package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
)

// ContextKey is the type of request context keys set by the middleware.
type ContextKey string

// Context keys for values attached by the middleware.
const (
	// UserContextKey holds the authenticated *domain.User (password fields stripped).
	UserContextKey ContextKey = "user"

	// TokenContextKey holds the raw bearer token of the request.
	TokenContextKey ContextKey = "token"

	// UserIDContextKey holds the authenticated user's uuid.UUID.
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// WithAuthenticatedUser attaches the sanitized user, its id and the raw token.
func WithAuthenticatedUser(ctx context.Context, user *domain.User, token string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, user.Sanitized())
	ctx = context.WithValue(ctx, UserIDContextKey, user.ID)
	return context.WithValue(ctx, TokenContextKey, token)
}

// GetUser returns the authenticated user, if any.
func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*domain.User)
	return user, ok && user != nil
}

// GetUserID returns the authenticated user's id. The nil UUID counts as absent.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetToken returns the raw bearer token of the request.
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(TokenContextKey).(string)
	return token
}

// SetTraceID adds a trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// generateTraceID returns 32 random hex characters, falling back to a
// time-derived id if crypto/rand fails.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	n, err := rand.Read(b)
	if err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"fallback", "time-based generation")
		return generateFallbackTraceID()
	}
	return hex.EncodeToString(b)
}

func generateFallbackTraceID() string {
	fallbackID := make([]byte, TraceIDLength)
	now := time.Now()
	binary.BigEndian.PutUint64(fallbackID[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(fallbackID[8:12], uint32(now.Nanosecond()))
	binary.BigEndian.PutUint32(fallbackID[12:16], uint32(now.Unix()))
	return hex.EncodeToString(fallbackID)
}
