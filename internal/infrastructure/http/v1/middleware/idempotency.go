package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicehub/internal/core/apperror"
	appctx "invoicehub/internal/core/context"
	"invoicehub/internal/infrastructure/storage/postgres"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// gin context keys shared with the handlers and the error handler.
const (
	ctxIdempotencyKey   = "idempotency_key"
	ctxIdempotencyStore = "idempotency_store"
)

// IdempotencyStore remembers the outcome of keyed requests.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key string, userID int64, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	ReleaseKey(ctx context.Context, key string) error
}

// Idempotency middleware replays the stored response of a request retried with the
// same X-Idempotency-Key. Requests without the header pass through.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		requestHash, err := readAndHashBody(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		operation := c.Request.Method + " " + c.FullPath()
		userID := appctx.GetUserID(c.Request.Context())

		replay, err := store.AcquireKey(c.Request.Context(), key, userID, operation, requestHash)
		if err != nil {
			if !apperror.IsAppError(err) {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		if replay != nil {
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(ctxIdempotencyKey, key)
		c.Set(ctxIdempotencyStore, store)

		c.Next()
	}
}

// readAndHashBody buffers the body so the handler can still read it and returns its SHA-256.
func readAndHashBody(c *gin.Context) (string, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
	if err != nil {
		return "", apperror.NewValidation("failed to read request body")
	}
	if len(body) > maxIdempotencyBodyBytes {
		tooLarge := apperror.NewValidation("request body too large for idempotency").
			WithDetail("max_bytes", maxIdempotencyBodyBytes)
		tooLarge.HTTPStatus = http.StatusRequestEntityTooLarge
		return "", tooLarge
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// CompleteIdempotency stores a successful response under the request's key, if any.
func CompleteIdempotency(c *gin.Context, status int, body any) {
	if key, store, ok := idempotencyFrom(c); ok {
		_ = store.CompleteKey(c.Request.Context(), key, status, "application/json", body)
	}
}

// failIdempotency stores an error response under the request's key, if any.
// Server errors, exhausted contention included, release the key instead so a retry with the
// same key runs again.
func failIdempotency(c *gin.Context, status int, body any) {
	key, store, ok := idempotencyFrom(c)
	if !ok {
		return
	}
	if status >= http.StatusInternalServerError {
		_ = store.ReleaseKey(c.Request.Context(), key)
		return
	}
	_ = store.FailKey(c.Request.Context(), key, status, "application/json", body)
}

func idempotencyFrom(c *gin.Context) (string, IdempotencyStore, bool) {
	key := c.GetString(ctxIdempotencyKey)
	if key == "" {
		return "", nil, false
	}
	v, _ := c.Get(ctxIdempotencyStore)
	store, ok := v.(IdempotencyStore)
	if !ok || store == nil {
		return "", nil, false
	}
	return key, store, true
}
