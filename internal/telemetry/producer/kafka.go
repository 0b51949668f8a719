package producer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"authcore/internal/telemetry"
)

// writeTimeout bounds a single write so slow Kafka does not block callers indefinitely.
const writeTimeout = 5 * time.Second

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer implements Producer using segmentio/kafka-go.
type KafkaProducer struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewKafkaProducer creates a Kafka producer that writes telemetry envelopes to the given topic.
// Returns nil when brokers or topic is empty so telemetry stays disabled. Call Close when shutting down.
func NewKafkaProducer(brokers []string, topic string, logger *slog.Logger) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaProducerWithWriter(writer, logger)
}

// NewKafkaProducerWithWriter wraps an existing writer.
func NewKafkaProducerWithWriter(w MessageWriter, logger *slog.Logger) *KafkaProducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaProducer{writer: w, logger: logger}
}

// Identify publishes an identify envelope.
func (p *KafkaProducer) Identify(ctx context.Context, id telemetry.Identity) error {
	return p.publish(ctx, telemetry.IdentifyEnvelope(id))
}

// Track publishes a track envelope.
func (p *KafkaProducer) Track(ctx context.Context, ev telemetry.Event) error {
	return p.publish(ctx, telemetry.TrackEnvelope(ev))
}

// publish keys messages by user id so one user's events stay ordered within a partition.
func (p *KafkaProducer) publish(ctx context.Context, env telemetry.Envelope) error {
	if p == nil || p.writer == nil {
		return nil
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(env.UserID),
		Value: payload,
		Time:  env.CreatedAt,
	})
	if err != nil {
		p.logger.Warn("telemetry: kafka publish failed", "event_type", env.EventType, "error", err)
		return err
	}
	return nil
}

// Close closes the Kafka writer. Safe to call multiple times.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}
