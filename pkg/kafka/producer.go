// Package kafka publishes JSON records to Kafka through segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/config"
)

// Record is one message to publish. Key picks the partition; Value is
// encoded as JSON.
type Record struct {
	Key   string
	Value any
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes records to a single topic.
type Producer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewProducer creates a producer for cfg.Topics.QueryEvents.
func NewProducer(cfg config.KafkaConfig) *Producer {
	topic := cfg.Topics.QueryEvents
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return newProducer(w, topic)
}

func newProducer(w messageWriter, topic string) *Producer {
	return &Producer{
		writer: w,
		topic:  topic,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

func encode(records []Record) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		value, err := json.Marshal(r.Value)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s record: %w", r.Key, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(r.Key),
			Value:   value,
			Headers: []kafka.Header{{Key: "content-type", Value: []byte("application/json")}},
		})
	}
	return msgs, nil
}

// Publish writes records in one synchronous call.
func (p *Producer) Publish(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs, err := encode(records)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("failed to publish", "count", len(msgs), "error", err)
		return fmt.Errorf("publishing to %s: %w", p.topic, err)
	}
	p.logger.Debug("published", "count", len(msgs))
	return nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}
