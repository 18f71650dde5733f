// Package audit contains domain types for the usage audit trail. Every
// compliance evaluation is recorded, whatever its outcome.
package audit

import (
	"encoding/json"
	"time"
)

// EventType constants for usage records.
const (
	// EventPolicyApplied records an evaluation that passed every check.
	EventPolicyApplied = "policy_applied"
	// EventPolicyViolated records an evaluation with one or more
	// violations, including those later allowed by manager override.
	EventPolicyViolated = "policy_violated"
)

// Record is one immutable usage audit entry.
type Record struct {
	// ID is a generated unique identifier.
	ID string `json:"id"`
	// Timestamp is when the evaluation happened (UTC).
	Timestamp time.Time `json:"timestamp"`

	OrgID  string `json:"orgId"`
	UserID string `json:"userId"`

	// PolicyID and ExceptionID are empty when no policy applied.
	PolicyID    string `json:"policyId,omitempty"`
	ExceptionID string `json:"exceptionId,omitempty"`
	// BookingID is set when the evaluation concerned a known booking.
	BookingID string `json:"bookingId,omitempty"`

	EventType string `json:"eventType"`

	// PolicySnapshot is the effective policy serialized at evaluation
	// time, so later audits see the rules as they were.
	PolicySnapshot json.RawMessage `json:"policySnapshot,omitempty"`

	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	// LimitChecked names the tightest limit consulted (e.g.
	// "flightMaxAmount=500").
	LimitChecked string `json:"limitChecked,omitempty"`

	Allowed          bool `json:"allowed"`
	RequiresApproval bool `json:"requiresApproval"`

	// Violations is the concatenated violation text, empty when clean.
	Violations string `json:"violations,omitempty"`

	// RequestID correlates the record with caller-side logs.
	RequestID string `json:"requestId,omitempty"`
}
