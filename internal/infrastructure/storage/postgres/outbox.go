package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"invoicehub/internal/domain/events"
	"invoicehub/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// DefaultOutboxMaxRetries is how often delivery is attempted before a message is parked as failed.
const DefaultOutboxMaxRetries = 5

var _ events.Publisher = (*OutboxPublisher)(nil)

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            int64             `db:"id"`
	AggregateType string            `db:"aggregate_type"`
	AggregateID   int64             `db:"aggregate_id"`
	EventType     string            `db:"event_type"`
	Payload       json.RawMessage   `db:"payload"`
	Headers       map[string]string `db:"headers"` // trace propagation
	Status        OutboxStatus      `db:"status"`
	RetryCount    int               `db:"retry_count"`
	LastError     *string           `db:"last_error"`
	NextRetryAt   *time.Time        `db:"next_retry_at"`
	CreatedAt     time.Time         `db:"created_at"`
	PublishedAt   *time.Time        `db:"published_at"`
}

var outboxColumns = []string{
	"id", "aggregate_type", "aggregate_id", "event_type", "payload", "headers",
	"status", "retry_count", "last_error", "next_retry_at", "created_at", "published_at",
}

// OutboxPublisher writes events to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event within the current transaction. The trace context of ctx is stored
// with it so consumers can continue the trace.
func (p *OutboxPublisher) Publish(ctx context.Context, event events.Event) error {
	tx, err := RequireTx(ctx, "outbox publish")
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	headers := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, headers)
	headerBytes, err := json.Marshal(map[string]string(headers))
	if err != nil {
		return fmt.Errorf("marshal event headers: %w", err)
	}

	query, args, err := psql.Insert("sys_outbox").
		Columns("aggregate_type", "aggregate_id", "event_type", "payload", "headers", "status").
		Values(event.AggregateType, event.AggregateID, event.EventType, payload, headerBytes, OutboxStatusPending).
		ToSql()
	if err != nil {
		return fmt.Errorf("build outbox insert: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers outbox messages.
type OutboxHandler interface {
	// Handle processes a message and returns error if failed
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxRelay reads due messages and hands them to a handler.
// Used by the background worker to publish events to the message broker.
type OutboxRelay struct {
	txManager  *TxManager
	handler    OutboxHandler
	batchSize  int
	maxRetries int
	now        func() time.Time
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, handler OutboxHandler, batchSize int) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		txManager:  txManager,
		handler:    handler,
		batchSize:  batchSize,
		maxRetries: DefaultOutboxMaxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// dueQuery selects pending messages that are due, skipping rows another relay holds.
func dueQuery(now time.Time, limit int) sq.SelectBuilder {
	return psql.Select(outboxColumns...).
		From("sys_outbox").
		Where(sq.Eq{"status": OutboxStatusPending}).
		Where(sq.Or{sq.Eq{"next_retry_at": nil}, sq.LtOrEq{"next_retry_at": now}}).
		OrderBy("id").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED")
}

// ProcessBatch delivers one batch of due messages and returns how many were published.
// Rows stay locked until the batch is recorded, so concurrent relays never deliver the same message.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tx, err := RequireTx(ctx, "outbox relay")
		if err != nil {
			return err
		}

		query, args, err := dueQuery(r.now(), r.batchSize).ToSql()
		if err != nil {
			return fmt.Errorf("build outbox select: %w", err)
		}
		var messages []*OutboxMessage
		if err := pgxscan.Select(ctx, tx, &messages, query, args...); err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.handler.Handle(ctx, msg); err != nil {
				logger.Warn(ctx, "outbox delivery failed",
					"outbox_id", msg.ID, "event_type", msg.EventType, "retry_count", msg.RetryCount, "error", err)
				if err := r.markFailed(ctx, msg, err); err != nil {
					return err
				}
				continue
			}
			if err := r.markPublished(ctx, msg.ID); err != nil {
				return err
			}
			processed++
		}
		return nil
	})
	return processed, err
}

func (r *OutboxRelay) markPublished(ctx context.Context, id int64) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3
	`, OutboxStatusPublished, r.now(), id)
	if err != nil {
		return fmt.Errorf("mark outbox message %d published: %w", id, err)
	}
	return nil
}

// outboxRetryStep is the backoff added per failed attempt.
const outboxRetryStep = time.Minute

// retryPlan is what happens to a message after a failed delivery.
type retryPlan struct {
	RetryCount  int
	Status      OutboxStatus
	NextRetryAt time.Time
}

// planRetry backs off linearly (1m, 2m, 3m, ...) and parks the message as failed once
// retryCount reaches maxRetries.
func planRetry(retryCount, maxRetries int, now time.Time) retryPlan {
	plan := retryPlan{
		RetryCount:  retryCount + 1,
		Status:      OutboxStatusPending,
		NextRetryAt: now.Add(time.Duration(retryCount+1) * outboxRetryStep),
	}
	if plan.RetryCount >= maxRetries {
		plan.Status = OutboxStatusFailed
	}
	return plan
}

// markFailed records a failed delivery according to planRetry.
func (r *OutboxRelay) markFailed(ctx context.Context, msg *OutboxMessage, cause error) error {
	plan := planRetry(msg.RetryCount, r.maxRetries, r.now())

	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_outbox
		SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4
		WHERE id = $5
	`, plan.RetryCount, cause.Error(), plan.NextRetryAt, plan.Status, msg.ID)
	if err != nil {
		return fmt.Errorf("mark outbox message %d failed: %w", msg.ID, err)
	}
	if plan.Status == OutboxStatusFailed {
		logger.Error(ctx, "outbox message parked after retries", "outbox_id", msg.ID, "retry_count", plan.RetryCount)
	}
	return nil
}

// PurgePublished deletes published messages older than age.
func (r *OutboxRelay) PurgePublished(ctx context.Context, age time.Duration) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2
	`, OutboxStatusPublished, r.now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return result.RowsAffected(), nil
}
