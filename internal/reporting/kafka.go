package reporting

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"gonetsentry/internal/analysis"
	"gonetsentry/internal/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes alerts as JSON to a topic, keyed by the offending source
// so one source's alerts stay ordered within a partition.
type Kafka struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafka builds an asynchronous writer; delivery failures are logged
// from the writer's completion callback.
func NewKafka(cfg config.KafkaConfig, logger *slog.Logger) *Kafka {
	if logger != nil {
		logger.Info("kafka alert sink enabled", "brokers", cfg.Brokers, "topic", cfg.Topic)
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil && logger != nil {
				logger.Warn("kafka alert delivery failed", "messages", len(messages), "err", err)
			}
		},
	}
	return &Kafka{writer: w, logger: logger}
}

func (k *Kafka) Report(alert analysis.Alert) {
	value, err := json.Marshal(alert)
	if err != nil {
		if k.logger != nil {
			k.logger.Warn("kafka alert encode failed", "err", err)
		}
		return
	}
	msg := kafka.Message{
		Key:   []byte(alert.Source),
		Value: value,
		Time:  alert.Timestamp,
	}
	if err := k.writer.WriteMessages(context.Background(), msg); err != nil && k.logger != nil {
		k.logger.Warn("kafka alert write failed", "err", err)
	}
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
