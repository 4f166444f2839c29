// Package kafka provides a JSON event producer for the query analytics topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/woodway-ua/photoindex/pkg/config"
	"github.com/woodway-ua/photoindex/pkg/logger"
)

// Event is one record to publish. Key drives partition hashing; Value is
// marshalled to JSON.
type Event struct {
	Key   string
	Value any
}

// Producer writes JSON events to a single topic.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a Producer. Writes are synchronous and acknowledged by
// the partition leader; analytics events are advisory, so leader acks are
// enough.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger.WithComponent("kafka-producer").With("topic", topic),
	}
}

// Publish marshals and writes one event.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("writing to kafka: %w", err)
	}
	p.logger.Debug("event published", "key", event.Key, "bytes", len(value))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
