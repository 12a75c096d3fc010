package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// MockStatsCache is an in-memory service.StatsCache with injectable failures.
type MockStatsCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*store.TaskStats

	GetErr        error
	SetErr        error
	InvalidateErr error

	// Call counters for verification
	Gets          int
	Sets          int
	Invalidations int
}

// Get returns the cached stats or (nil, nil) on a miss.
func (m *MockStatsCache) Get(_ context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.entries[userID], nil
}

// Set stores stats for the user.
func (m *MockStatsCache) Set(_ context.Context, userID uuid.UUID, stats *store.TaskStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.entries == nil {
		m.entries = make(map[uuid.UUID]*store.TaskStats)
	}
	m.entries[userID] = stats
	return nil
}

// Invalidate drops the user's entry.
func (m *MockStatsCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidations++
	if m.InvalidateErr != nil {
		return m.InvalidateErr
	}
	delete(m.entries, userID)
	return nil
}
