package amadeus

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/tripforge/tripforge/internal/domain/provider"
	"github.com/tripforge/tripforge/internal/domain/travel"
)

// ProviderName is the registry tag for this adapter.
const ProviderName = "amadeus"

// DefaultQuoteTTL bounds how long a quoted offer stays bookable. The GDS
// returns no expiry timestamp, so the window is stamped at retrieval time.
const DefaultQuoteTTL = 20 * time.Minute

// quote is a retrieved offer held for detail and booking calls. GDS offers
// are session quotes: re-pricing and order creation both need the original
// payload back, so it is kept alongside the stamped expiry.
type quote struct {
	raw       rawOffer
	dict      rawDictionaries
	expiresAt time.Time
}

// Adapter implements the supplier contract against the GDS API. Seat maps
// and ancillary services are not offered through this channel.
type Adapter struct {
	client   *Client
	logger   *slog.Logger
	quoteTTL time.Duration
	now      func() time.Time

	mu     sync.Mutex
	quotes map[string]quote
}

var _ provider.Adapter = (*Adapter)(nil)

// AdapterOption configures Adapter.
type AdapterOption func(*Adapter)

// WithQuoteTTL overrides the quote validity window.
func WithQuoteTTL(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d > 0 {
			a.quoteTTL = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		a.now = now
	}
}

// NewAdapter creates the adapter around an API client.
func NewAdapter(client *Client, logger *slog.Logger, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		client:   client,
		logger:   logger.With("provider", ProviderName),
		quoteTTL: DefaultQuoteTTL,
		now:      time.Now,
		quotes:   make(map[string]quote),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the provider tag.
func (a *Adapter) Name() string { return ProviderName }

// Supports reports capability coverage. This channel exposes neither seat
// maps nor ancillary services.
func (a *Adapter) Supports(provider.Capability) bool { return false }

// Search runs a flight-offers search and returns the normalized offers.
// Returned quotes are retained for detail and booking calls until their
// validity window elapses.
func (a *Adapter) Search(ctx context.Context, params travel.SearchParams) ([]travel.Offer, error) {
	q := url.Values{}
	q.Set("originLocationCode", params.Origin)
	q.Set("destinationLocationCode", params.Destination)
	q.Set("departureDate", params.DepartureDate)
	if params.ReturnDate != "" {
		q.Set("returnDate", params.ReturnDate)
	}
	q.Set("adults", fmt.Sprintf("%d", params.Adults))
	if params.Children > 0 {
		q.Set("children", fmt.Sprintf("%d", params.Children))
	}
	if params.Infants > 0 {
		q.Set("infants", fmt.Sprintf("%d", params.Infants))
	}
	if cabin, ok := cabinToAmadeus[params.CabinClass]; ok && params.CabinClass != "" {
		q.Set("travelClass", cabin)
	}
	if params.MaxResults > 0 {
		q.Set("max", fmt.Sprintf("%d", params.MaxResults))
	}
	q.Set("currencyCode", "EUR")

	var resp searchResponse
	if err := a.client.do(ctx, "GET", "/v2/shopping/flight-offers?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	retrievedAt := a.now()
	offers := make([]travel.Offer, 0, len(resp.Data))

	a.mu.Lock()
	a.pruneLocked(retrievedAt)
	for _, ro := range resp.Data {
		offer := toOffer(ro, resp.Dictionaries, retrievedAt, a.quoteTTL)
		a.quotes[offer.ID] = quote{raw: ro, dict: resp.Dictionaries, expiresAt: offer.ExpiresAt}
		offers = append(offers, offer)
	}
	a.mu.Unlock()

	a.logger.Debug("search complete",
		"origin", params.Origin, "destination", params.Destination, "offers", len(offers))
	return offers, nil
}

// GetOfferDetail re-prices a quoted offer. The validity window is checked
// client-side first; the GDS itself never rejects a stale quote on read.
func (a *Adapter) GetOfferDetail(ctx context.Context, offerID string) (*travel.Offer, error) {
	held, err := a.liveQuote(offerID)
	if err != nil {
		return nil, err
	}

	var req pricingRequest
	req.Data.Type = "flight-offers-pricing"
	req.Data.FlightOffers = []rawOffer{held.raw}

	var resp pricingResponse
	if err := a.client.do(ctx, "POST", "/v1/shopping/flight-offers/pricing", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data.FlightOffers) == 0 {
		return nil, &travel.UpstreamError{
			Provider: ProviderName,
			Op:       "pricing",
			Message:  "pricing returned no offers",
		}
	}

	dict := resp.Dictionaries
	if len(dict.Carriers) == 0 {
		dict = held.dict
	}
	offer := toOffer(resp.Data.FlightOffers[0], dict, a.now(), a.quoteTTL)
	offer.ID = offerID

	a.mu.Lock()
	a.quotes[offerID] = quote{raw: resp.Data.FlightOffers[0], dict: dict, expiresAt: offer.ExpiresAt}
	a.mu.Unlock()

	return &offer, nil
}

// CreateBooking re-verifies quote validity and places a flight order.
func (a *Adapter) CreateBooking(ctx context.Context, params provider.BookingParams) (*travel.BookingConfirmation, error) {
	held, err := a.liveQuote(params.OfferID)
	if err != nil {
		return nil, err
	}

	travelers, warnings, err := toOrderTravelers(params.Passengers, a.logger)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		a.logger.Warn("booking input adjusted", "detail", w)
	}
	if len(params.Services) > 0 {
		a.logger.Warn("ancillary services not offered through this channel, ignoring",
			"requested", len(params.Services))
	}

	var req orderRequest
	req.Data.Type = "flight-order"
	req.Data.FlightOffers = []rawOffer{held.raw}
	req.Data.Travelers = travelers

	var resp orderResponse
	if err := a.client.do(ctx, "POST", "/v1/booking/flight-orders", req, &resp); err != nil {
		return nil, err
	}

	conf := toConfirmation(resp, held.dict, params.Passengers, a.now(), a.quoteTTL)
	conf.ServicesDropped = len(params.Services)
	a.logger.Info("booking created", "reference", conf.Reference)
	return conf, nil
}

// SeatMaps is not supported on this channel.
func (a *Adapter) SeatMaps(context.Context, string) ([]provider.SeatMap, error) {
	return nil, provider.ErrCapabilityNotSupported
}

// AvailableServices is not supported on this channel.
func (a *Adapter) AvailableServices(context.Context, string) ([]provider.Service, error) {
	return nil, provider.ErrCapabilityNotSupported
}

// liveQuote returns the held quote for an offer id, failing with
// *travel.ExpiredOfferError when its validity window has elapsed. Unknown
// ids are reported as expired too: quotes are pruned once stale, so an id
// this adapter no longer holds is a quote the caller kept past its window.
func (a *Adapter) liveQuote(offerID string) (quote, error) {
	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()

	held, ok := a.quotes[offerID]
	if !ok {
		return quote{}, travel.NewExpiredOfferError(offerID, now.Add(-a.quoteTTL), now)
	}
	if !now.Before(held.expiresAt) {
		delete(a.quotes, offerID)
		return quote{}, travel.NewExpiredOfferError(offerID, held.expiresAt, now)
	}
	return held, nil
}

// pruneLocked drops stale quotes. Caller holds a.mu.
func (a *Adapter) pruneLocked(now time.Time) {
	for id, q := range a.quotes {
		if !now.Before(q.expiresAt) {
			delete(a.quotes, id)
		}
	}
}
