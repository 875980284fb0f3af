// Package kafka provides a telemetry publisher backed by a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/telemetry"
)

// Config is the configuration options for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the topic summaries are written to.
	Topic string

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Publisher publishes stream summaries to a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka-backed telemetry publisher.
// The underlying writer connects lazily; broker reachability is not
// verified here.
func NewPublisher(c *Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}

	if c.Topic == "" {
		return nil, errors.New("topic is required")
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}

	return &Publisher{
		writer: w,
		logger: logger,
	}, nil
}

// PublishSummary marshals the summary and writes it to the topic, keyed
// by event ID so redeliveries of the same event land on the same partition.
func (p *Publisher) PublishSummary(ctx context.Context, summary *telemetry.StreamSummary) error {
	if summary == nil {
		return telemetry.ErrNilSummary
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(summary.EventID),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing summary to kafka: %w", err)
	}

	p.logger.Debug("summary published",
		zap.String("event_id", summary.EventID),
		zap.String("topic", p.writer.Topic),
	)

	return nil
}

// Close flushes buffered messages and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
