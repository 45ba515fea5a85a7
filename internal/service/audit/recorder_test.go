package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/volatiq/volatiq/internal/domain/repository"
	applogger "github.com/volatiq/volatiq/pkg/logger"
)

type stubMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *stubMetrics) RecordPrediction(string, int) {}
func (m *stubMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}
func (m *stubMetrics) RecordRateLimited(string)      {}
func (m *stubMetrics) RecordLatency(string, float64) {}

func (m *stubMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

// captureSink records delivered events. entered (when set) is signalled once
// per delivery before blocking on release.
type captureSink struct {
	mu      sync.Mutex
	events  []*repository.AuditEvent
	closed  bool
	entered chan struct{}
	release chan struct{}
}

func (s *captureSink) Record(_ context.Context, ev *repository.AuditEvent) error {
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func newTestLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestRecorderDeliversInOrder(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(sink, &stubMetrics{}, newTestLogger(t), 16)

	for i := 0; i < 3; i++ {
		r.Record(&repository.AuditEvent{Route: "predict", NumRows: i + 1, Timestamp: time.Now()})
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(sink.events) != 3 {
		t.Fatalf("expected 3 delivered events, got %d", len(sink.events))
	}
	for i, ev := range sink.events {
		if ev.NumRows != i+1 {
			t.Fatalf("event %d out of order: %+v", i, ev)
		}
	}
	if !sink.closed {
		t.Fatalf("close must propagate to the sink")
	}
}

func TestRecorderDropsWhenBufferFull(t *testing.T) {
	sink := &captureSink{
		entered: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	metrics := &stubMetrics{}
	r := NewRecorder(sink, metrics, newTestLogger(t), 1)

	// First event is taken by the worker, which then blocks inside the sink.
	r.Record(&repository.AuditEvent{NumRows: 1})
	<-sink.entered

	// Second fills the buffer; third has nowhere to go.
	r.Record(&repository.AuditEvent{NumRows: 2})
	r.Record(&repository.AuditEvent{NumRows: 3})

	if got := metrics.count("audit_dropped"); got != 1 {
		t.Fatalf("expected 1 dropped event, got %d", got)
	}

	close(sink.release)
	<-sink.entered // second delivery
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 delivered events, got %d", len(sink.events))
	}
}

type failingSink struct{ closed bool }

func (s *failingSink) Record(context.Context, *repository.AuditEvent) error {
	return context.DeadlineExceeded
}
func (s *failingSink) Close() error { s.closed = true; return nil }

func TestRecorderCountsDeliveryFailures(t *testing.T) {
	metrics := &stubMetrics{}
	r := NewRecorder(&failingSink{}, metrics, newTestLogger(t), 4)

	r.Record(&repository.AuditEvent{NumRows: 1})
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := metrics.count("audit_delivery"); got != 1 {
		t.Fatalf("expected 1 delivery failure, got %d", got)
	}
}
