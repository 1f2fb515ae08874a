// Package kafka holds the broker-facing adapters: the async event publisher
// and the consumer-group ingestion loop.
package kafka

import (
	"context"
	"fmt"
	"io"
	"log"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/socialstats/engage/internal/core/domain"
)

// Publisher enqueues engagement events without waiting for broker
// acknowledgment. The writer runs in async mode: WriteMessages returns as soon
// as the message is buffered, and delivery failures surface through the
// completion callback as log lines only. A returned error therefore always
// means a local enqueue failure, never a delivery one.
type Publisher struct {
	writer *kafkago.Writer
}

func NewPublisher(brokers []string) *Publisher {
	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(brokers...),
		Balancer: &kafkago.Hash{},
		Async:    true,
		Completion: func(messages []kafkago.Message, err error) {
			if err != nil {
				for _, m := range messages {
					log.Printf("deliver %s key=%s: %v", m.Topic, string(m.Key), err)
				}
			}
		},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: writer}
}

func (p *Publisher) Publish(ctx context.Context, event domain.EngagementEvent) error {
	payload, err := event.Envelope()
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: event.Topic(),
		Key:   []byte(event.Key()),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", event.Topic(), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ io.Closer = (*Publisher)(nil)
