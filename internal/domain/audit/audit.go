// Package audit records who changed what.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Action is the type of an audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Recorder persists audit entries. Implementations write through the ambient transaction,
// so an entry commits or rolls back together with the change it describes.
type Recorder interface {
	Record(ctx context.Context, entityType string, entityID int64, action Action, changes map[string]any) error
}

// Entry is a stored audit record.
type Entry struct {
	ID         int64           `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   int64           `json:"entityId"`
	Action     Action          `json:"action"`
	UserID     int64           `json:"userId"`
	Changes    json.RawMessage `json:"changes"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Reader returns the history of an entity, newest first.
type Reader interface {
	History(ctx context.Context, entityType string, entityID int64, limit int) ([]Entry, error)
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, string, int64, Action, map[string]any) error { return nil }

// Diff calculates the difference between old and new entity states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

// equal compares the printed form, which is what ends up in the audit log anyway.
func equal(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
