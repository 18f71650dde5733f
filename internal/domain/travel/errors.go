package travel

import (
	"errors"
	"fmt"
	"time"
)

// UpstreamError wraps a transport, auth, or unexpected-shape failure from a
// provider. Read-only calls that fail with an UpstreamError may be retried
// against a fallback provider; side-effecting calls may not.
type UpstreamError struct {
	// Provider is the adapter tag.
	Provider string
	// Op is the operation that failed (e.g. "search").
	Op string
	// Message is a provider-agnostic description safe to surface to
	// callers. Raw upstream bodies are logged, never put here.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: upstream failure", e.Provider, e.Op)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// ExpiredOfferError reports that an offer's validity window has elapsed.
// Never retryable; the caller must run a fresh search.
type ExpiredOfferError struct {
	OfferID   string
	ExpiredAt time.Time
	// Elapsed is how long ago the offer expired, relative to the check.
	Elapsed time.Duration
}

func (e *ExpiredOfferError) Error() string {
	minutes := int(e.Elapsed.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("offer %s expired %d minute(s) ago; please search again for current offers", e.OfferID, minutes)
}

// NewExpiredOfferError builds an ExpiredOfferError for an offer checked at now.
func NewExpiredOfferError(offerID string, expiredAt, now time.Time) *ExpiredOfferError {
	return &ExpiredOfferError{OfferID: offerID, ExpiredAt: expiredAt, Elapsed: now.Sub(expiredAt)}
}

// IsExpiredOffer reports whether err is (or wraps) an ExpiredOfferError.
func IsExpiredOffer(err error) bool {
	var ee *ExpiredOfferError
	return errors.As(err, &ee)
}

// ValidationError reports malformed or missing booking input. Never
// retryable without caller correction.
type ValidationError struct {
	// Field is the offending field name.
	Field string
	// Passenger names the offending passenger, when applicable.
	Passenger string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Passenger != "" {
		return fmt.Sprintf("passenger %s: %s: %s", e.Passenger, e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
