package memory

import (
	"context"
	"sync"

	"github.com/tripforge/tripforge/internal/domain/audit"
)

// defaultQueryLimit caps query results when the filter does not.
const defaultQueryLimit = 100

// AuditStore implements audit.Store and audit.QueryStore over an in-memory
// slice. Records are held in append order.
type AuditStore struct {
	mu      sync.RWMutex
	records []audit.Record
}

var (
	_ audit.Store      = (*AuditStore)(nil)
	_ audit.QueryStore = (*AuditStore)(nil)
)

// NewAuditStore creates an empty in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Append stores records.
func (s *AuditStore) Append(ctx context.Context, records ...audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Flush is a no-op: appends are immediately visible.
func (s *AuditStore) Flush(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *AuditStore) Close() error { return nil }

// Query returns records matching the filter in chronological order.
func (s *AuditStore) Query(ctx context.Context, filter audit.Filter) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var out []audit.Record
	for _, r := range s.records {
		if r.Timestamp.Before(filter.StartTime) || r.Timestamp.After(filter.EndTime) {
			continue
		}
		if filter.OrgID != "" && r.OrgID != filter.OrgID {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.EventType != "" && r.EventType != filter.EventType {
			continue
		}
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of stored records, for tests.
func (s *AuditStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
