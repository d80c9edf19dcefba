package domain

import (
	"context"
	"fmt"
)

// HookEvent names a point in an entity's lifecycle.
type HookEvent string

const (
	AfterCreate HookEvent = "after_create"
	AfterUpdate HookEvent = "after_update"
)

// Hook runs inside the transaction of the operation that fired it. A non-nil error rolls it back.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry keeps hooks per event in registration order. Register at startup only.
type HookRegistry[T any] struct {
	byEvent map[HookEvent][]Hook[T]
}

func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{byEvent: map[HookEvent][]Hook[T]{}}
}

func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.byEvent[event] = append(r.byEvent[event], hook)
}

func (r *HookRegistry[T]) OnAfterCreate(hook Hook[T]) { r.On(AfterCreate, hook) }

func (r *HookRegistry[T]) OnAfterUpdate(hook Hook[T]) { r.On(AfterUpdate, hook) }

// Run stops at the first failing hook.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for i, hook := range r.byEvent[event] {
		if err := hook(ctx, entity); err != nil {
			return fmt.Errorf("%s hook #%d: %w", event, i+1, err)
		}
	}
	return nil
}
