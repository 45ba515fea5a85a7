package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiq/volatiq/internal/domain/repository"
	pkgch "github.com/volatiq/volatiq/pkg/clickhouse"
)

// ClickHouseSink persists audit events for the dashboard collaborator.
type ClickHouseSink struct {
	client *pkgch.Client
	table  string
}

// NewClickHouseSink ensures the audit table exists and returns the sink.
func NewClickHouseSink(client *pkgch.Client, database, table string) (*ClickHouseSink, error) {
	qualified := database + "." + table

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + database,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime64(3),
			route String,
			client_id String,
			num_rows UInt32,
			duration_ms Float64,
			status String,
			model_version String
		) ENGINE=MergeTree ORDER BY (route, ts)`, qualified),
	}); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}

	return &ClickHouseSink{client: client, table: qualified}, nil
}

// Record implements repository.AuditSink.
func (s *ClickHouseSink) Record(ctx context.Context, ev *repository.AuditEvent) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (ts, route, client_id, num_rows, duration_ms, status, model_version) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.table)
	_, err := s.client.DB().ExecContext(ctx, query,
		ev.Timestamp,
		ev.Route,
		ev.ClientID,
		uint32(ev.NumRows),
		float64(ev.Duration)/float64(time.Millisecond),
		ev.Status,
		ev.ModelVersion,
	)
	if err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}

// Close implements repository.AuditSink.
func (s *ClickHouseSink) Close() error {
	return s.client.Close()
}

var _ repository.AuditSink = (*ClickHouseSink)(nil)
