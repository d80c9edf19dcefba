package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"invoicehub/internal/core/apperror"
)

// IdempotencyStatus is the state of a keyed request.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// DefaultIdempotencyTTL is how long a stored response can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// stalePendingAfter is how long a pending key may go untouched before another request takes it over.
const stalePendingAfter = time.Minute

// idempotencyRecord mirrors sys_idempotency.
type idempotencyRecord struct {
	UserID      int64
	Operation   string
	Status      IdempotencyStatus
	RequestHash string // sha256 of the request body
	Response    []byte
	StatusCode  int
	ContentType string
	UpdatedAt   time.Time
	Inserted    bool // the acquiring statement created the row
}

// IdempotencyReplay is a stored response to send again.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore remembers the outcome of POST /invoices requests sent with an idempotency key.
// It writes outside the business transaction, so a stored response survives its rollback.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a store. ttl <= 0 selects DefaultIdempotencyTTL.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{
		txManager: txManager,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AcquireKey claims key for a request.
//
// It returns (nil, nil) when the caller should run the request, a replay when the key already
// holds a final response, IDEMPOTENCY_MISMATCH when the key belongs to a different request,
// and IDEMPOTENCY_CONFLICT while another request with the key is in flight.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key string, userID int64, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()
	q := s.txManager.GetQuerier(ctx)

	// An expired key that cleanup has not reached yet counts as unused.
	if _, err := q.Exec(ctx, `
		DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND expires_at < $2
	`, key, now); err != nil {
		return nil, fmt.Errorf("drop expired idempotency key: %w", err)
	}

	var rec idempotencyRecord
	// xmax = 0 only for a row this statement inserted.
	err := q.QueryRow(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET expires_at = sys_idempotency.expires_at
		RETURNING user_id, operation, status, request_hash,
			COALESCE(response, ''::bytea), COALESCE(response_status, 0), COALESCE(response_content_type, ''),
			updated_at, (xmax = 0)
	`, key, userID, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl)).Scan(
		&rec.UserID, &rec.Operation, &rec.Status, &rec.RequestHash,
		&rec.Response, &rec.StatusCode, &rec.ContentType,
		&rec.UpdatedAt, &rec.Inserted,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	switch decide(rec, userID, operation, requestHash, now) {
	case keyRun:
		return nil, nil
	case keyMismatch:
		return nil, apperror.NewIdempotencyMismatch(key).WithDetail("operation", operation)
	case keyReplay:
		return rec.replay(), nil
	case keyReclaim:
		// Matching on updated_at lets only one of several reclaimers win.
		result, err := q.Exec(ctx, `
			UPDATE sys_idempotency SET updated_at = $1
			WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
		`, now, key, IdempotencyStatusPending, rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("reclaim stale idempotency key: %w", err)
		}
		if result.RowsAffected() == 1 {
			return nil, nil
		}
	}
	return nil, apperror.NewIdempotencyConflict(key)
}

// keyDecision is what AcquireKey does with the row it found or created.
type keyDecision int

const (
	keyRun      keyDecision = iota // fresh key, run the request
	keyMismatch                    // key used by another user, operation or body
	keyReplay                      // final response stored
	keyReclaim                     // pending but abandoned, try to take it over
	keyConflict                    // pending and in flight
)

func decide(rec idempotencyRecord, userID int64, operation, requestHash string, now time.Time) keyDecision {
	switch {
	case rec.Inserted:
		return keyRun
	case rec.UserID != userID || rec.Operation != operation || rec.RequestHash != requestHash:
		return keyMismatch
	case rec.Status == IdempotencyStatusSuccess || rec.Status == IdempotencyStatusFailed:
		return keyReplay
	case now.Sub(rec.UpdatedAt) > stalePendingAfter:
		return keyReclaim
	default:
		return keyConflict
	}
}

func (r idempotencyRecord) replay() *IdempotencyReplay {
	out := &IdempotencyReplay{StatusCode: r.StatusCode, ContentType: r.ContentType, Body: r.Response}
	if out.StatusCode == 0 {
		out.StatusCode = http.StatusOK
	}
	if out.ContentType == "" {
		out.ContentType = "application/json"
	}
	return out
}

// CompleteKey stores the successful response of the request holding key.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, response)
}

// FailKey stores a final error response of the request holding key.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, response any) error {
	query, args, err := psql.Update("sys_idempotency").
		Set("status", status).
		Set("response", encodeResponse(response)).
		Set("response_status", statusCode).
		Set("response_content_type", contentType).
		Set("updated_at", s.now()).
		Where("idempotency_key = ?", key).
		Where("status = ?", IdempotencyStatusPending).
		ToSql()
	if err != nil {
		return fmt.Errorf("build idempotency update: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("store idempotent response: %w", err)
	}
	return nil
}

// encodeResponse renders the body to store. A body that cannot be encoded is replaced by a
// minimal error body so the key still ends in a final state.
func encodeResponse(response any) []byte {
	if response == nil {
		return nil
	}
	b, err := json.Marshal(response)
	if err != nil {
		b, _ = json.Marshal(map[string]string{"code": apperror.CodeInternal, "message": "response not stored"})
	}
	return b
}

// ReleaseKey forgets a pending key so the request may be retried with it.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2
	`, key, IdempotencyStatusPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired keys and returns how many were removed.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE expires_at < $1
	`, s.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return result.RowsAffected(), nil
}
