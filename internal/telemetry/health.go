// Package telemetry holds the cross-cutting observability ledgers: per-service
// health rows and the append-only usage ledger. Writes are fire-and-forget
// from the caller's point of view — a failed write never fails, delays, or
// retries the primary operation.
package telemetry

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/draftforge/proposal-agent/internal/store"
)

// Health status values for a tracked service.
const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"
	StatusOffline  = "offline"
	StatusUnknown  = "unknown"
)

// HealthRecord is one logical row per service. Status fields are
// last-write-wins; RequestCount only ever increments.
type HealthRecord struct {
	Service      string `json:"service"`
	Status       string `json:"status"`
	LatencyMs    int64  `json:"latencyMs"`
	RequestCount int64  `json:"requestCount"`
	ErrorMessage string `json:"errorMessage"`
	LastChecked  int64  `json:"lastChecked"`
}

// HealthTracker persists per-service health rows.
type HealthTracker struct {
	ds     *store.Store
	logger zerolog.Logger
}

// NewHealthTracker creates a health tracker.
func NewHealthTracker(ds *store.Store, logger zerolog.Logger) *HealthTracker {
	return &HealthTracker{
		ds:     ds,
		logger: logger.With().Str("component", "telemetry.health").Logger(),
	}
}

// Record upserts the service row: status fields last-write-wins, request
// count incremented atomically in SQL.
func (t *HealthTracker) Record(service, status string, latencyMs int64, errorMessage string) error {
	_, err := t.ds.DB().Exec(
		`INSERT INTO service_health (service, status, latency_ms, request_count, error_message, last_checked)
		 VALUES (?, ?, ?, 1, ?, ?)
		 ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			latency_ms = excluded.latency_ms,
			request_count = service_health.request_count + 1,
			error_message = excluded.error_message,
			last_checked = excluded.last_checked`,
		service, status, latencyMs, errorMessage, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record health: %w", err)
	}
	return nil
}

// RecordAsync is the fire-and-forget form used on the provider hot path.
func (t *HealthTracker) RecordAsync(service, status string, latencyMs int64, errorMessage string) {
	if err := t.Record(service, status, latencyMs, errorMessage); err != nil {
		t.logger.Debug().Err(err).Str("service", service).Msg("health write dropped")
	}
}

// List returns all service rows.
func (t *HealthTracker) List() ([]*HealthRecord, error) {
	rows, err := t.ds.DB().Query(
		`SELECT service, status, latency_ms, request_count, error_message, last_checked FROM service_health ORDER BY service`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list health records: %w", err)
	}
	defer rows.Close()

	var records []*HealthRecord
	for rows.Next() {
		r := &HealthRecord{}
		if err := rows.Scan(&r.Service, &r.Status, &r.LatencyMs, &r.RequestCount, &r.ErrorMessage, &r.LastChecked); err != nil {
			return nil, fmt.Errorf("failed to scan health record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Get returns the row for one service, or nil when never recorded.
func (t *HealthTracker) Get(service string) (*HealthRecord, error) {
	records, err := t.List()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Service == service {
			return r, nil
		}
	}
	return nil, nil
}
