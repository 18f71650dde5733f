// Package sqlite provides the persistent store backed by an embedded
// SQLite database. It implements the policy store, user directory, spend
// ledger, and audit stores over one schema.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tripforge/tripforge/internal/domain/audit"
	"github.com/tripforge/tripforge/internal/domain/compliance"
	"github.com/tripforge/tripforge/internal/domain/policy"
)

// timeFormat is a fixed-width UTC timestamp layout. Padding the fraction
// to nine digits keeps lexicographic ORDER BY and range comparisons over
// the TEXT columns chronological; RFC3339Nano trims trailing zeros and
// mis-sorts same-second ties.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS policies (
	id            TEXT PRIMARY KEY,
	org_id        TEXT NOT NULL,
	role          TEXT NOT NULL,
	priority      INTEGER NOT NULL DEFAULT 0,
	enabled       INTEGER NOT NULL DEFAULT 1,
	created_at    TEXT NOT NULL,
	document      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_policies_org_role ON policies(org_id, role);

CREATE TABLE IF NOT EXISTS policy_exceptions (
	id            TEXT PRIMARY KEY,
	policy_id     TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	document      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exceptions_policy_user ON policy_exceptions(policy_id, user_id);

CREATE TABLE IF NOT EXISTS users (
	org_id  TEXT NOT NULL,
	user_id TEXT NOT NULL,
	role    TEXT NOT NULL,
	PRIMARY KEY (org_id, user_id)
);

CREATE TABLE IF NOT EXISTS spend_entries (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   TEXT NOT NULL,
	org_id    TEXT NOT NULL,
	status    TEXT NOT NULL,
	amount    REAL NOT NULL,
	booked_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_spend_user_org ON spend_entries(user_id, org_id, booked_at);

CREATE TABLE IF NOT EXISTS audit_records (
	id                TEXT PRIMARY KEY,
	timestamp         TEXT NOT NULL,
	org_id            TEXT NOT NULL,
	user_id           TEXT NOT NULL,
	event_type        TEXT NOT NULL,
	policy_id         TEXT,
	exception_id      TEXT,
	booking_id        TEXT,
	policy_snapshot   TEXT,
	amount            REAL NOT NULL DEFAULT 0,
	currency          TEXT,
	limit_checked     TEXT,
	allowed           INTEGER NOT NULL,
	requires_approval INTEGER NOT NULL,
	violations        TEXT,
	request_id        TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_records(timestamp);
`

// Store is the SQLite-backed persistent store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ policy.Store           = (*Store)(nil)
	_ policy.Directory       = (*Store)(nil)
	_ compliance.SpendLedger = (*Store)(nil)
	_ audit.Store            = (*Store)(nil)
	_ audit.QueryStore       = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// The driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Flush is a no-op: writes are committed synchronously.
func (s *Store) Flush(ctx context.Context) error { return nil }

// SavePolicy creates or updates a policy. The full document is stored as
// JSON; the filterable columns are denormalized alongside it.
func (s *Store) SavePolicy(ctx context.Context, p *policy.TravelPolicy) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding policy: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policies (id, org_id, role, priority, enabled, created_at, document)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			org_id = excluded.org_id,
			role = excluded.role,
			priority = excluded.priority,
			enabled = excluded.enabled,
			created_at = excluded.created_at,
			document = excluded.document`,
		p.ID, p.OrgID, p.Role, p.Priority, boolToInt(p.Enabled),
		p.CreatedAt.UTC().Format(timeFormat), string(doc))
	if err != nil {
		return fmt.Errorf("saving policy: %w", err)
	}
	return nil
}

// GetPolicy returns a policy by id.
func (s *Store) GetPolicy(ctx context.Context, id string) (*policy.TravelPolicy, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM policies WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, policy.ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading policy: %w", err)
	}
	return decodePolicy(doc)
}

// DeletePolicy removes a policy by id.
func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting policy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return policy.ErrPolicyNotFound
	}
	return nil
}

// ListPolicies returns all policies for an organization, highest priority
// first.
func (s *Store) ListPolicies(ctx context.Context, orgID string) ([]policy.TravelPolicy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM policies WHERE org_id = ? ORDER BY priority DESC, id ASC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing policies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []policy.TravelPolicy
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning policy: %w", err)
		}
		p, err := decodePolicy(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// EffectiveCandidate returns the winning active policy for the organization
// and role. Candidate rows are filtered in SQL; the temporal window check
// stays in Go because the bounds live inside the JSON document.
func (s *Store) EffectiveCandidate(ctx context.Context, orgID, role string, now time.Time) (*policy.TravelPolicy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document FROM policies
		WHERE org_id = ? AND role = ? AND enabled = 1
		ORDER BY priority DESC, created_at DESC, id DESC`, orgID, role)
	if err != nil {
		return nil, fmt.Errorf("querying policies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning policy: %w", err)
		}
		p, err := decodePolicy(doc)
		if err != nil {
			return nil, err
		}
		if p.ActiveAt(now) {
			return p, nil
		}
	}
	return nil, rows.Err()
}

// ActiveException returns the most recently created currently-valid
// exception for the policy and user, or (nil, nil).
func (s *Store) ActiveException(ctx context.Context, policyID, userID string, now time.Time) (*policy.PolicyException, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document FROM policy_exceptions
		WHERE policy_id = ? AND user_id = ?
		ORDER BY created_at DESC`, policyID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exceptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning exception: %w", err)
		}
		var e policy.PolicyException
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return nil, fmt.Errorf("decoding exception: %w", err)
		}
		if e.ActiveAt(now) {
			return &e, nil
		}
	}
	return nil, rows.Err()
}

// SaveException creates or updates an exception.
func (s *Store) SaveException(ctx context.Context, e *policy.PolicyException) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding exception: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policy_exceptions (id, policy_id, user_id, created_at, document)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			policy_id = excluded.policy_id,
			user_id = excluded.user_id,
			created_at = excluded.created_at,
			document = excluded.document`,
		e.ID, e.PolicyID, e.UserID, e.CreatedAt.UTC().Format(timeFormat), string(doc))
	if err != nil {
		return fmt.Errorf("saving exception: %w", err)
	}
	return nil
}

// DeleteException removes an exception by id.
func (s *Store) DeleteException(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM policy_exceptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting exception: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return policy.ErrExceptionNotFound
	}
	return nil
}

// SetRole records a user's role within an organization.
func (s *Store) SetRole(ctx context.Context, userID, orgID, role string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (org_id, user_id, role) VALUES (?, ?, ?)
		ON CONFLICT(org_id, user_id) DO UPDATE SET role = excluded.role`,
		orgID, userID, role)
	if err != nil {
		return fmt.Errorf("saving user role: %w", err)
	}
	return nil
}

// UserRole returns the user's role in the organization.
func (s *Store) UserRole(ctx context.Context, userID, orgID string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM users WHERE org_id = ? AND user_id = ?`, orgID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", policy.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading user role: %w", err)
	}
	return role, nil
}

// RecordSpend appends a booking spend entry.
func (s *Store) RecordSpend(ctx context.Context, userID, orgID, status string, amount float64, bookedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spend_entries (user_id, org_id, status, amount, booked_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, orgID, status, amount, bookedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("recording spend: %w", err)
	}
	return nil
}

// SumBookingAmount sums the user's booking amounts in the given statuses
// within [from, to).
func (s *Store) SumBookingAmount(ctx context.Context, userID, orgID string, statuses []string, from, to time.Time) (float64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := []any{userID, orgID}
	for _, st := range statuses {
		args = append(args, st)
	}
	args = append(args,
		from.UTC().Format(timeFormat),
		to.UTC().Format(timeFormat))

	var sum sql.NullFloat64
	query := fmt.Sprintf(`
		SELECT SUM(amount) FROM spend_entries
		WHERE user_id = ? AND org_id = ? AND status IN (%s)
		AND booked_at >= ? AND booked_at < ?`, placeholders)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("summing spend: %w", err)
	}
	return sum.Float64, nil
}

// Append stores audit records.
func (s *Store) Append(ctx context.Context, records ...audit.Record) error {
	for _, r := range records {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO audit_records (
				id, timestamp, org_id, user_id, event_type, policy_id,
				exception_id, booking_id, policy_snapshot, amount, currency,
				limit_checked, allowed, requires_approval, violations, request_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Timestamp.UTC().Format(timeFormat), r.OrgID, r.UserID,
			r.EventType, r.PolicyID, r.ExceptionID, r.BookingID,
			string(r.PolicySnapshot), r.Amount, r.Currency, r.LimitChecked,
			boolToInt(r.Allowed), boolToInt(r.RequiresApproval), r.Violations, r.RequestID)
		if err != nil {
			return fmt.Errorf("appending audit record: %w", err)
		}
	}
	return nil
}

// Query returns audit records matching the filter in chronological order.
func (s *Store) Query(ctx context.Context, filter audit.Filter) ([]audit.Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, timestamp, org_id, user_id, event_type, policy_id,
			exception_id, booking_id, policy_snapshot, amount, currency,
			limit_checked, allowed, requires_approval, violations, request_id
		FROM audit_records
		WHERE timestamp >= ? AND timestamp <= ?`
	args := []any{
		filter.StartTime.UTC().Format(timeFormat),
		filter.EndTime.UTC().Format(timeFormat),
	}
	if filter.OrgID != "" {
		query += ` AND org_id = ?`
		args = append(args, filter.OrgID)
	}
	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
	}
	query += ` ORDER BY timestamp ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []audit.Record
	for rows.Next() {
		var r audit.Record
		var ts, snapshot string
		var allowed, requiresApproval int
		err := rows.Scan(&r.ID, &ts, &r.OrgID, &r.UserID, &r.EventType,
			&r.PolicyID, &r.ExceptionID, &r.BookingID, &snapshot, &r.Amount,
			&r.Currency, &r.LimitChecked, &allowed, &requiresApproval,
			&r.Violations, &r.RequestID)
		if err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.Timestamp = t
		}
		if snapshot != "" {
			r.PolicySnapshot = json.RawMessage(snapshot)
		}
		r.Allowed = allowed != 0
		r.RequiresApproval = requiresApproval != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func decodePolicy(doc string) (*policy.TravelPolicy, error) {
	var p policy.TravelPolicy
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decoding policy: %w", err)
	}
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
