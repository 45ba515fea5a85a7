package repository

import (
	"context"
	"time"
)

// AuditEvent is one served request worth of audit trail, consumed by the
// dashboard and ingestion collaborators downstream.
type AuditEvent struct {
	Timestamp    time.Time
	Route        string
	ClientID     string
	NumRows      int
	Duration     time.Duration
	Status       string
	ModelVersion string
}

// AuditSink receives audit events. Implementations must never block the
// request path; delivery is best effort.
type AuditSink interface {
	Record(ctx context.Context, ev *AuditEvent) error
	Close() error
}

// Metrics abstracts operational counters so usecases don't depend on a
// concrete metrics backend.
type Metrics interface {
	RecordPrediction(route string, rows int)
	RecordError(kind string)
	RecordRateLimited(route string)
	RecordLatency(op string, seconds float64)
}
