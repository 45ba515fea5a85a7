package audit

import (
	"context"

	"github.com/volatiq/volatiq/internal/domain/repository"
)

// NoopSink discards events. Used when no audit backend is configured.
type NoopSink struct{}

// Record implements repository.AuditSink.
func (NoopSink) Record(context.Context, *repository.AuditEvent) error { return nil }

// Close implements repository.AuditSink.
func (NoopSink) Close() error { return nil }

var _ repository.AuditSink = NoopSink{}
