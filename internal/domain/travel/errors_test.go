package travel

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestUpstreamErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := &UpstreamError{Provider: "duffel", Op: "search", Message: "provider request failed", Err: cause}

	if !IsUpstream(err) {
		t.Error("IsUpstream returned false for UpstreamError")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find wrapped cause")
	}
	wrapped := fmt.Errorf("searching flights: %w", err)
	if !IsUpstream(wrapped) {
		t.Error("IsUpstream returned false for wrapped UpstreamError")
	}
}

func TestExpiredOfferErrorMessage(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	err := NewExpiredOfferError("off_123", now.Add(-23*time.Minute), now)

	if !IsExpiredOffer(err) {
		t.Error("IsExpiredOffer returned false")
	}
	msg := err.Error()
	if !strings.Contains(msg, "off_123") {
		t.Errorf("message missing offer id: %q", msg)
	}
	if !strings.Contains(msg, "23 minute") {
		t.Errorf("message missing elapsed minutes: %q", msg)
	}
}

func TestExpiredOfferErrorRoundsUpToOneMinute(t *testing.T) {
	now := time.Now()
	err := NewExpiredOfferError("off_1", now.Add(-10*time.Second), now)
	if !strings.Contains(err.Error(), "1 minute") {
		t.Errorf("expected at least one minute reported, got %q", err.Error())
	}
}

func TestValidationErrorNamesPassenger(t *testing.T) {
	err := &ValidationError{Field: "dateOfBirth", Passenger: "Ada Lovelace", Message: "is required"}
	if !IsValidation(err) {
		t.Error("IsValidation returned false")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Ada Lovelace") || !strings.Contains(msg, "dateOfBirth") {
		t.Errorf("message should name passenger and field: %q", msg)
	}
}

func TestOfferExpired(t *testing.T) {
	now := time.Now()
	o := Offer{ExpiresAt: now.Add(-time.Minute)}
	if !o.Expired(now) {
		t.Error("offer past its expiry should report expired")
	}
	o.ExpiresAt = now.Add(time.Minute)
	if o.Expired(now) {
		t.Error("offer before its expiry should not report expired")
	}
	o.ExpiresAt = time.Time{}
	if o.Expired(now) {
		t.Error("offer without expiry should never report expired")
	}
}
