package audit

import (
	"context"
	"time"

	"github.com/volatiq/volatiq/internal/domain/repository"
	applogger "github.com/volatiq/volatiq/pkg/logger"
)

// Recorder decouples the request path from the audit backend: events go
// into a bounded buffer and a single worker delivers them. When the buffer
// is full the event is dropped and counted; requests never wait on audit.
type Recorder struct {
	sink    repository.AuditSink
	logger  *applogger.Logger
	metrics repository.Metrics

	events chan *repository.AuditEvent
	done   chan struct{}
}

// NewRecorder starts the delivery worker over the given sink.
func NewRecorder(sink repository.AuditSink, metrics repository.Metrics, logger *applogger.Logger, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	r := &Recorder{
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		events:  make(chan *repository.AuditEvent, bufferSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues an event without blocking.
func (r *Recorder) Record(ev *repository.AuditEvent) {
	select {
	case r.events <- ev:
	default:
		r.metrics.RecordError("audit_dropped")
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for ev := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.sink.Record(ctx, ev); err != nil {
			r.metrics.RecordError("audit_delivery")
			r.logger.Warn("audit delivery failed", applogger.Error(err))
		}
		cancel()
	}
}

// Close drains buffered events and stops the worker.
func (r *Recorder) Close() error {
	close(r.events)
	<-r.done
	return r.sink.Close()
}
