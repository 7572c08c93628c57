package mock

import (
	"context"
	"sync"
)

// StatIncrementer is a mock implementation of service.StatIncrementer for testing
type StatIncrementer struct {
	DefaultError error

	mu    sync.Mutex
	calls []IncrementStatCall
}

// IncrementStatCall tracks parameters for IncrementStat calls
type IncrementStatCall struct {
	UserID   string
	StatCode string
}

// IncrementStat implements service.StatIncrementer
func (m *StatIncrementer) IncrementStat(ctx context.Context, userID, statCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, IncrementStatCall{UserID: userID, StatCode: statCode})
	return m.DefaultError
}

// Calls returns a copy of the recorded calls
func (m *StatIncrementer) Calls() []IncrementStatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]IncrementStatCall(nil), m.calls...)
}
