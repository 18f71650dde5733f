package duffel

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tripforge/tripforge/internal/domain/provider"
	"github.com/tripforge/tripforge/internal/domain/travel"
)

// ProviderName is the registry tag for this adapter.
const ProviderName = "duffel"

// Adapter implements the supplier contract against the Duffel API.
type Adapter struct {
	client *Client
	logger *slog.Logger
	now    func() time.Time
}

var _ provider.Adapter = (*Adapter)(nil)

// AdapterOption configures Adapter.
type AdapterOption func(*Adapter)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		a.now = now
	}
}

// NewAdapter creates the adapter around an API client.
func NewAdapter(client *Client, logger *slog.Logger, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		client: client,
		logger: logger.With("provider", ProviderName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the provider tag.
func (a *Adapter) Name() string { return ProviderName }

// Supports reports capability coverage. Seat maps and ancillary services are
// both available from this supplier.
func (a *Adapter) Supports(c provider.Capability) bool {
	switch c {
	case provider.CapabilitySeatMaps, provider.CapabilityServices:
		return true
	}
	return false
}

// Search creates an offer request and returns the normalized offers. An
// empty result is a valid success.
func (a *Adapter) Search(ctx context.Context, params travel.SearchParams) ([]travel.Offer, error) {
	input := offerRequestInput{
		Slices: []offerRequestSlice{{
			Origin:        params.Origin,
			Destination:   params.Destination,
			DepartureDate: params.DepartureDate,
		}},
		CabinClass: cabinToDuffel[params.CabinClass],
		MaxOffers:  params.MaxResults,
	}
	if params.ReturnDate != "" {
		input.Slices = append(input.Slices, offerRequestSlice{
			Origin:        params.Destination,
			Destination:   params.Origin,
			DepartureDate: params.ReturnDate,
		})
	}
	for i := 0; i < params.Adults; i++ {
		input.Passengers = append(input.Passengers, offerRequestPassenger{Type: "adult"})
	}
	for i := 0; i < params.Children; i++ {
		input.Passengers = append(input.Passengers, offerRequestPassenger{Type: "child"})
	}
	for i := 0; i < params.Infants; i++ {
		input.Passengers = append(input.Passengers, offerRequestPassenger{Type: "infant_without_seat"})
	}

	var raw rawOfferRequest
	if err := a.client.do(ctx, "POST", "/air/offer_requests?return_offers=true", input, &raw); err != nil {
		return nil, err
	}

	offers := make([]travel.Offer, 0, len(raw.Offers))
	for _, ro := range raw.Offers {
		offers = append(offers, toOffer(ro))
	}
	a.logger.Debug("search complete",
		"origin", params.Origin, "destination", params.Destination, "offers", len(offers))
	return offers, nil
}

// GetOfferDetail fetches the offer and checks its validity window
// client-side. Upstream does not reject expired offers on read, so the
// adapter does.
func (a *Adapter) GetOfferDetail(ctx context.Context, offerID string) (*travel.Offer, error) {
	var raw rawOffer
	if err := a.client.do(ctx, "GET", "/air/offers/"+url.PathEscape(offerID), nil, &raw); err != nil {
		return nil, err
	}
	offer := toOffer(raw)
	if offer.Expired(a.now()) {
		return nil, travel.NewExpiredOfferError(offer.ID, offer.ExpiresAt, a.now())
	}
	return &offer, nil
}

// CreateBooking re-verifies offer expiry, reconciles requested services
// against the live catalogue, and places the order.
func (a *Adapter) CreateBooking(ctx context.Context, params provider.BookingParams) (*travel.BookingConfirmation, error) {
	offer, err := a.GetOfferDetail(ctx, params.OfferID)
	if err != nil {
		return nil, err
	}

	passengerInputs, warnings, err := toPassengerInputs(params.Passengers, a.logger)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		a.logger.Warn("booking input adjusted", "detail", w)
	}

	var quote provider.ServiceQuote
	var serviceInputs []serviceSelection
	if len(params.Services) > 0 {
		available, err := a.client.fetchServices(ctx, params.OfferID)
		if err != nil {
			return nil, err
		}
		quote, serviceInputs = reconcileServices(params.Services, available, a.logger)
	}

	order := orderInput{
		Type:           "instant",
		SelectedOffers: []string{params.OfferID},
		Passengers:     passengerInputs,
		Services:       serviceInputs,
		Payments: []paymentInput{{
			Type:     "balance",
			Amount:   fmt.Sprintf("%.2f", offer.Price.Total+quote.Total),
			Currency: offer.Price.Currency,
		}},
	}

	var raw rawOrder
	if err := a.client.do(ctx, "POST", "/air/orders", order, &raw); err != nil {
		return nil, err
	}

	conf := toConfirmation(raw, params.Passengers)
	conf.ServicesHonored = len(quote.Honored)
	conf.ServicesDropped = len(quote.Dropped)
	a.logger.Info("booking created",
		"reference", conf.Reference,
		"services_honored", conf.ServicesHonored,
		"services_dropped", conf.ServicesDropped)
	return conf, nil
}

// SeatMaps fetches seat maps for an offer. The cabin layout passes through
// opaquely.
func (a *Adapter) SeatMaps(ctx context.Context, offerID string) ([]provider.SeatMap, error) {
	var raw []rawSeatMap
	if err := a.client.do(ctx, "GET", "/air/seat_maps?offer_id="+url.QueryEscape(offerID), nil, &raw); err != nil {
		return nil, err
	}
	maps := make([]provider.SeatMap, 0, len(raw))
	for _, m := range raw {
		maps = append(maps, provider.SeatMap{ID: m.ID, SegmentID: m.SegmentID, Cabins: m.Cabins})
	}
	return maps, nil
}

// AvailableServices returns the current ancillary catalogue for an offer.
func (a *Adapter) AvailableServices(ctx context.Context, offerID string) ([]provider.Service, error) {
	raw, err := a.client.fetchServices(ctx, offerID)
	if err != nil {
		return nil, err
	}
	return toServices(raw), nil
}
