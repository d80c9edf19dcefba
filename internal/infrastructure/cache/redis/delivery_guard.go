// Package redis keeps short-lived delivery markers in Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"invoicehub/internal/infrastructure/storage/postgres"
	"invoicehub/pkg/logger"
)

const keyPrefix = "invoicehub:outbox:delivered:"

// DefaultMarkerTTL outlives the outbox retry window.
const DefaultMarkerTTL = 24 * time.Hour

// Client is the part of go-redis the guard needs.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *goredis.BoolCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// NewClient connects to a single Redis node.
func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// DeliveryGuard wraps an outbox handler so that a message is handed on at most once
// while its marker lives. The relay marks a message published only after the handler
// returns; if that update is lost the message comes back and the marker skips it.
type DeliveryGuard struct {
	next   postgres.OutboxHandler
	client Client
	ttl    time.Duration
}

func NewDeliveryGuard(next postgres.OutboxHandler, client Client, ttl time.Duration) *DeliveryGuard {
	if ttl <= 0 {
		ttl = DefaultMarkerTTL
	}
	return &DeliveryGuard{next: next, client: client, ttl: ttl}
}

// Handle implements postgres.OutboxHandler. When Redis is unreachable the message is
// delivered anyway: duplicates are preferred over parked events.
func (g *DeliveryGuard) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	key := markerKey(msg.ID)

	claimed, err := g.client.SetNX(ctx, key, msg.EventType, g.ttl).Result()
	if err != nil {
		logger.Warn(ctx, "delivery marker unavailable", "outbox_id", msg.ID, "error", err)
		return g.next.Handle(ctx, msg)
	}
	if !claimed {
		logger.Info(ctx, "outbox message already delivered, skipping", "outbox_id", msg.ID)
		return nil
	}

	if err := g.next.Handle(ctx, msg); err != nil {
		if delErr := g.client.Del(ctx, key).Err(); delErr != nil {
			logger.Warn(ctx, "failed to release delivery marker", "outbox_id", msg.ID, "error", delErr)
		}
		return err
	}
	return nil
}

func markerKey(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}
