// Package events publishes order status transitions to Kafka. Publishing
// happens after the database transaction commits and is best-effort: a
// broker outage never fails the request that caused the transition.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/brandonvio/brightthread/internal/model"
)

// StatusChangeEvent is the wire payload for an order status transition.
type StatusChangeEvent struct {
	OrderID    uuid.UUID         `json:"orderId"`
	FromStatus model.OrderStatus `json:"fromStatus"`
	ToStatus   model.OrderStatus `json:"toStatus"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// Publisher writes status change events to a Kafka topic through a
// buffered inbox drained by a background goroutine, so callers never block
// on the broker.
type Publisher struct {
	writer  *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	logger  zerolog.Logger
}

// NewPublisher creates a Kafka-backed status publisher. Messages are keyed
// by order ID so all events for one order land on the same partition.
func NewPublisher(brokers []string, topic string, buf int, logger zerolog.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger.With().Str("component", "status-publisher").Logger(),
	}
}

// Start drains the inbox until ctx is cancelled, then flushes what is left
// and closes the writer. The inbox is never closed: a late publish after
// shutdown is dropped, not a panic.
func (p *Publisher) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case m := <-p.inbox:
						p.write(m)
					default:
						if err := p.writer.Close(); err != nil {
							p.logger.Error().Err(err).Msg("failed to close kafka writer")
						}
						return
					}
				}
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Publisher) write(m kafka.Message) {
	if err := p.writer.WriteMessages(context.Background(), m); err != nil {
		p.logger.Error().
			Err(err).
			Str("key", string(m.Key)).
			Msg("failed to publish status change event")
	}
}

// PublishStatusChange enqueues a transition event. When the inbox is full
// the event is dropped rather than blocking the caller.
func (p *Publisher) PublishStatusChange(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus) {
	event := StatusChangeEvent{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		OccurredAt: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to encode status change event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(orderID.String()),
		Value: payload,
		Time:  event.OccurredAt,
	}

	select {
	case p.inbox <- msg:
	default:
		p.logger.Warn().
			Str("order_id", orderID.String()).
			Str("to", string(to)).
			Msg("status event dropped; publish buffer full")
	}
}

// WaitClosed blocks until the background goroutine has flushed and exited.
func (p *Publisher) WaitClosed() {
	<-p.closeCh
}
