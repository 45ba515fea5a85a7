package audit

import (
	"context"
	"time"

	"github.com/volatiq/volatiq/internal/domain/repository"
	pkgkafka "github.com/volatiq/volatiq/pkg/kafka"
)

// kafkaEvent is the wire form of an audit event.
type kafkaEvent struct {
	Timestamp    time.Time `json:"ts"`
	Route        string    `json:"route"`
	ClientID     string    `json:"client_id"`
	NumRows      int       `json:"num_rows"`
	DurationMs   float64   `json:"duration_ms"`
	Status       string    `json:"status"`
	ModelVersion string    `json:"model_version"`
}

// KafkaSink publishes audit events to a Kafka topic, keyed by client so a
// client's events stay ordered within a partition.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSink wraps a producer as an audit sink.
func NewKafkaSink(producer *pkgkafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// Record implements repository.AuditSink.
func (s *KafkaSink) Record(ctx context.Context, ev *repository.AuditEvent) error {
	return s.producer.Publish(ctx, s.topic, []byte(ev.ClientID), kafkaEvent{
		Timestamp:    ev.Timestamp,
		Route:        ev.Route,
		ClientID:     ev.ClientID,
		NumRows:      ev.NumRows,
		DurationMs:   float64(ev.Duration) / float64(time.Millisecond),
		Status:       ev.Status,
		ModelVersion: ev.ModelVersion,
	})
}

// Close implements repository.AuditSink.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}

var _ repository.AuditSink = (*KafkaSink)(nil)
