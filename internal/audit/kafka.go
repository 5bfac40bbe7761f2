package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaSink mirrors the trail onto a topic for downstream consumers
// (analytics, alerting). Optional; the Postgres trail stays the source
// of truth.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink builds a sink writing to the given brokers and topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// Record implements Sink. Events key on the job id so one job's trail
// stays ordered within a partition.
func (s *KafkaSink) Record(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}
	var key []byte
	if ev.JobID != nil {
		key = []byte(ev.JobID.String())
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return fmt.Errorf("publishing audit event: %w", err)
	}
	return nil
}

// Close releases the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
