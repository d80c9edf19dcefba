package tx

import (
	"context"
	"sync"
)

// MockManager runs fn directly, one call at a time. Used in unit tests.
// Nested calls join the outer one, as with the real manager.
type MockManager struct {
	mu sync.Mutex

	// Calls counts top-level transactions.
	Calls int
}

type mockTxKey struct{}

// RunInTransaction implements Manager.
func (m *MockManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(mockTxKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return fn(context.WithValue(ctx, mockTxKey{}, true))
}

// ReadOnly implements ReadOnlyManager.
func (m *MockManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransaction(ctx, fn)
}

var _ ReadOnlyManager = (*MockManager)(nil)
