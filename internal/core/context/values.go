// Package context carries per-request values: who is calling and which request this is.
package context

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	userKey ctxKey = iota
	traceKey
)

// UserContext is the authenticated user as decoded from the access token.
type UserContext struct {
	UserID         int64
	Username       string
	Email          string
	Roles          []string
	OrganizationID *int64 // shop admins only
	SessionID      string
}

// TraceContext identifies one HTTP request and the trace it belongs to.
type TraceContext struct {
	TraceID   string
	RequestID string
}

// NewTraceContext keeps incoming ids and generates the missing ones.
func NewTraceContext(traceID, requestID string) *TraceContext {
	tc := &TraceContext{TraceID: traceID, RequestID: requestID}
	if tc.TraceID == "" {
		tc.TraceID = uuid.NewString()
	}
	if tc.RequestID == "" {
		tc.RequestID = uuid.NewString()
	}
	return tc
}

func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns nil for anonymous requests.
func GetUser(ctx context.Context) *UserContext {
	user, _ := ctx.Value(userKey).(*UserContext)
	return user
}

// GetUserID returns zero for anonymous requests.
func GetUserID(ctx context.Context) int64 {
	if user := GetUser(ctx); user != nil {
		return user.UserID
	}
	return 0
}

func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey, trace)
}

func GetTrace(ctx context.Context) *TraceContext {
	trace, _ := ctx.Value(traceKey).(*TraceContext)
	return trace
}

func GetRequestID(ctx context.Context) string {
	if trace := GetTrace(ctx); trace != nil {
		return trace.RequestID
	}
	return ""
}
