// Package kafka delivers outbox messages to Kafka.
package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"invoicehub/internal/infrastructure/storage/postgres"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter creates a writer that waits for all in-sync replicas.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// Publisher implements postgres.OutboxHandler by writing every message to one topic.
// Messages are keyed by aggregate id, so events of one invoice keep their order.
type Publisher struct {
	writer MessageWriter
	topic  string
}

var _ postgres.OutboxHandler = (*Publisher)(nil)

// NewPublisher creates a publisher for topic.
func NewPublisher(writer MessageWriter, topic string) *Publisher {
	return &Publisher{writer: writer, topic: topic}
}

// Handle implements postgres.OutboxHandler.
func (p *Publisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if err := p.writer.WriteMessages(ctx, toMessage(p.topic, msg)); err != nil {
		return fmt.Errorf("write %s to kafka: %w", msg.EventType, err)
	}
	return nil
}

func toMessage(topic string, msg *postgres.OutboxMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers,
		kafka.Header{Key: "event_type", Value: []byte(msg.EventType)},
		kafka.Header{Key: "aggregate_type", Value: []byte(msg.AggregateType)},
		kafka.Header{Key: "outbox_id", Value: []byte(strconv.FormatInt(msg.ID, 10))},
	)

	return kafka.Message{
		Topic:   topic,
		Key:     []byte(strconv.FormatInt(msg.AggregateID, 10)),
		Value:   msg.Payload,
		Headers: headers,
		Time:    msg.CreatedAt,
	}
}
