// Package provider defines the supplier adapter contract and the registry
// that selects adapters for the fallback orchestrator.
package provider

import (
	"context"
	"errors"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

// Capability identifies an optional adapter feature.
type Capability string

const (
	// CapabilitySeatMaps marks adapters that can fetch seat maps.
	CapabilitySeatMaps Capability = "seat_maps"
	// CapabilityServices marks adapters that can list and price
	// ancillary services (bags, seats, etc).
	CapabilityServices Capability = "services"
)

// ErrCapabilityNotSupported is returned by optional methods on adapters
// that do not implement the capability. Call Supports first.
var ErrCapabilityNotSupported = errors.New("capability not supported by this provider")

// Adapter is the fixed contract every supplier implements. Search, offer
// detail, and booking are required; seat maps and services are optional and
// gated by Supports.
type Adapter interface {
	// Name returns the provider tag (e.g. "duffel").
	Name() string

	// Supports reports whether the adapter implements an optional capability.
	Supports(c Capability) bool

	// Search returns canonical offers for the given parameters. An empty
	// result list is a valid success, not an error.
	Search(ctx context.Context, params travel.SearchParams) ([]travel.Offer, error)

	// GetOfferDetail fetches the current state of an offer. Fails with
	// *travel.ExpiredOfferError when the offer's validity window has
	// elapsed; the check is made client-side from the upstream timestamp.
	GetOfferDetail(ctx context.Context, offerID string) (*travel.Offer, error)

	// CreateBooking books an offer. The adapter re-verifies offer expiry
	// before issuing the booking call and fails fast with
	// *travel.ExpiredOfferError.
	CreateBooking(ctx context.Context, params BookingParams) (*travel.BookingConfirmation, error)

	// SeatMaps returns seat maps for an offer. Returns
	// ErrCapabilityNotSupported unless Supports(CapabilitySeatMaps).
	SeatMaps(ctx context.Context, offerID string) ([]SeatMap, error)

	// AvailableServices returns the ancillary services currently offered
	// for an offer. Returns ErrCapabilityNotSupported unless
	// Supports(CapabilityServices).
	AvailableServices(ctx context.Context, offerID string) ([]Service, error)
}
