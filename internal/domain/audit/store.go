package audit

import (
	"context"
	"time"
)

// Store persists usage records. Append is best-effort from the caller's
// perspective: failures are logged by the recorder and never propagated
// into a booking decision.
type Store interface {
	// Append stores records.
	Append(ctx context.Context, records ...Record) error

	// Flush forces pending records to storage. Called during shutdown.
	Flush(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Filter specifies query parameters for audit queries.
type Filter struct {
	// StartTime and EndTime bound the time range (required).
	StartTime time.Time
	EndTime   time.Time
	// OrgID filters by organization (optional).
	OrgID string
	// UserID filters by user (optional).
	UserID string
	// EventType filters by event type (optional).
	EventType string
	// Limit caps the number of records returned (default 100).
	Limit int
}

// QueryStore provides read access to recorded evaluations for audit review.
// Separate from Store, which only handles writes.
type QueryStore interface {
	// Query returns records matching the filter in chronological order.
	Query(ctx context.Context, filter Filter) ([]Record, error)
}
