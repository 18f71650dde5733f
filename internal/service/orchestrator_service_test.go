package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tripforge/tripforge/internal/adapter/outbound/memory"
	"github.com/tripforge/tripforge/internal/domain/provider"
	"github.com/tripforge/tripforge/internal/domain/travel"
)

// fakeAdapter is a scriptable provider.Adapter.
type fakeAdapter struct {
	name string

	offers      []travel.Offer
	searchErr   error
	searchCalls int

	detailOffer *travel.Offer
	detailErr   error

	conf        *travel.BookingConfirmation
	bookingErr  error
	bookingCall int
}

var _ provider.Adapter = (*fakeAdapter)(nil)

func (f *fakeAdapter) Name() string                        { return f.name }
func (f *fakeAdapter) Supports(c provider.Capability) bool { return false }

func (f *fakeAdapter) Search(ctx context.Context, params travel.SearchParams) ([]travel.Offer, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.offers, nil
}

func (f *fakeAdapter) GetOfferDetail(ctx context.Context, offerID string) (*travel.Offer, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.detailOffer, nil
}

func (f *fakeAdapter) CreateBooking(ctx context.Context, params provider.BookingParams) (*travel.BookingConfirmation, error) {
	f.bookingCall++
	if f.bookingErr != nil {
		return nil, f.bookingErr
	}
	return f.conf, nil
}

func (f *fakeAdapter) SeatMaps(ctx context.Context, offerID string) ([]provider.SeatMap, error) {
	return nil, provider.ErrCapabilityNotSupported
}

func (f *fakeAdapter) AvailableServices(ctx context.Context, offerID string) ([]provider.Service, error) {
	return nil, provider.ErrCapabilityNotSupported
}

func validSearchParams() travel.SearchParams {
	return travel.SearchParams{
		Origin:        "LHR",
		Destination:   "JFK",
		DepartureDate: "2026-04-01",
		Adults:        1,
	}
}

func newOrchestrator(t *testing.T, adapters []provider.Adapter, opts ...OrchestratorOption) *OrchestratorService {
	t.Helper()
	registry := provider.NewRegistry()
	for _, a := range adapters {
		registry.Register(a)
	}
	return NewOrchestratorService(registry, discardLogger(), opts...)
}

func TestOrchestrator_PrimarySuccess(t *testing.T) {
	primary := &fakeAdapter{name: "duffel", offers: []travel.Offer{{ID: "off_1"}}}
	fallback := &fakeAdapter{name: "amadeus"}
	svc := newOrchestrator(t, []provider.Adapter{primary, fallback})

	result, err := svc.SearchWithFallback(context.Background(), validSearchParams(), "")
	if err != nil {
		t.Fatalf("SearchWithFallback: %v", err)
	}
	if result.Provider != "duffel" || result.UsedFallback {
		t.Errorf("result = %+v, want primary without fallback", result)
	}
	if len(result.Offers) != 1 {
		t.Errorf("offers = %d, want 1", len(result.Offers))
	}
	if fallback.searchCalls != 0 {
		t.Errorf("fallback searched %d times, want 0", fallback.searchCalls)
	}
}

func TestOrchestrator_FallbackOnPrimaryFailure(t *testing.T) {
	upstreamErr := &travel.UpstreamError{Provider: "duffel", Message: "boom"}
	primary := &fakeAdapter{name: "duffel", searchErr: upstreamErr}
	fallback := &fakeAdapter{name: "amadeus", offers: []travel.Offer{{ID: "am-1"}}}
	svc := newOrchestrator(t, []provider.Adapter{primary, fallback})

	result, err := svc.SearchWithFallback(context.Background(), validSearchParams(), "")
	if err != nil {
		t.Fatalf("SearchWithFallback: %v", err)
	}
	if !result.UsedFallback || result.Provider != "amadeus" {
		t.Errorf("result = %+v, want fallback tagged", result)
	}
	if len(result.Offers) != 1 || result.Offers[0].ID != "am-1" {
		t.Errorf("offers = %+v", result.Offers)
	}
}

func TestOrchestrator_FallbackDisabled(t *testing.T) {
	upstreamErr := &travel.UpstreamError{Provider: "duffel", Message: "boom"}
	primary := &fakeAdapter{name: "duffel", searchErr: upstreamErr}
	fallback := &fakeAdapter{name: "amadeus", offers: []travel.Offer{{ID: "am-1"}}}
	svc := newOrchestrator(t, []provider.Adapter{primary, fallback}, WithFallback(false))

	_, err := svc.SearchWithFallback(context.Background(), validSearchParams(), "")
	var ue *travel.UpstreamError
	if !errors.As(err, &ue) || ue.Provider != "duffel" {
		t.Errorf("error = %v, want the primary's upstream error", err)
	}
	if fallback.searchCalls != 0 {
		t.Errorf("fallback searched %d times with fallback disabled", fallback.searchCalls)
	}
}

func TestOrchestrator_BothFailSurfacesPrimaryError(t *testing.T) {
	primaryErr := &travel.UpstreamError{Provider: "duffel", Message: "primary down"}
	fallbackErr := &travel.UpstreamError{Provider: "amadeus", Message: "fallback down"}
	primary := &fakeAdapter{name: "duffel", searchErr: primaryErr}
	fallback := &fakeAdapter{name: "amadeus", searchErr: fallbackErr}
	svc := newOrchestrator(t, []provider.Adapter{primary, fallback})

	_, err := svc.SearchWithFallback(context.Background(), validSearchParams(), "")
	var ue *travel.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if ue.Provider != "duffel" {
		t.Errorf("surfaced provider = %q, want the primary's error", ue.Provider)
	}
	if fallback.searchCalls != 1 {
		t.Errorf("fallback searched %d times, want 1", fallback.searchCalls)
	}
}

func TestOrchestrator_ExplicitProviderBypassesFallback(t *testing.T) {
	upstreamErr := &travel.UpstreamError{Provider: "amadeus", Message: "down"}
	primary := &fakeAdapter{name: "duffel", offers: []travel.Offer{{ID: "off_1"}}}
	named := &fakeAdapter{name: "amadeus", searchErr: upstreamErr}
	svc := newOrchestrator(t, []provider.Adapter{primary, named})

	_, err := svc.SearchWithFallback(context.Background(), validSearchParams(), "amadeus")
	if err == nil {
		t.Fatal("expected the named provider's error")
	}
	if primary.searchCalls != 0 {
		t.Errorf("primary searched %d times despite explicit provider", primary.searchCalls)
	}
}

func TestOrchestrator_UnknownAndUnavailableProviders(t *testing.T) {
	registry := provider.NewRegistry()
	registry.Register(&fakeAdapter{name: "duffel"})
	registry.MarkUnavailable("amadeus", "no credentials configured")
	svc := NewOrchestratorService(registry, discardLogger())

	_, err := svc.SearchWithFallback(context.Background(), validSearchParams(), "sabre")
	var unknown *provider.UnknownProviderError
	if !errors.As(err, &unknown) {
		t.Errorf("error = %v, want UnknownProviderError", err)
	}

	_, err = svc.SearchWithFallback(context.Background(), validSearchParams(), "amadeus")
	var unavailable *provider.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Errorf("error = %v, want UnavailableError", err)
	}
}

func TestOrchestrator_CacheHit(t *testing.T) {
	primary := &fakeAdapter{name: "duffel", offers: []travel.Offer{{ID: "off_1"}}}
	cache := memory.NewSearchCache()
	svc := newOrchestrator(t, []provider.Adapter{primary}, WithSearchCache(cache))

	ctx := context.Background()
	first, err := svc.SearchWithFallback(ctx, validSearchParams(), "")
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	if first.CacheHit {
		t.Error("first search reported a cache hit")
	}

	second, err := svc.SearchWithFallback(ctx, validSearchParams(), "")
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if !second.CacheHit {
		t.Error("second search should hit the cache")
	}
	if second.Provider != "duffel" || len(second.Offers) != 1 {
		t.Errorf("cached result = %+v", second)
	}
	if primary.searchCalls != 1 {
		t.Errorf("provider searched %d times, want 1", primary.searchCalls)
	}

	// A different route misses.
	other := validSearchParams()
	other.Destination = "SFO"
	third, err := svc.SearchWithFallback(ctx, other, "")
	if err != nil {
		t.Fatalf("third search: %v", err)
	}
	if third.CacheHit {
		t.Error("different parameters must not hit the cache")
	}
}

func TestOrchestrator_InvalidSearchParams(t *testing.T) {
	svc := newOrchestrator(t, []provider.Adapter{&fakeAdapter{name: "duffel"}})

	params := validSearchParams()
	params.Origin = "London" // not an IATA code

	_, err := svc.SearchWithFallback(context.Background(), params, "")
	if !travel.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestOrchestrator_CreateBookingRoutesToNamedProvider(t *testing.T) {
	primary := &fakeAdapter{name: "duffel"}
	named := &fakeAdapter{name: "amadeus", conf: &travel.BookingConfirmation{
		Reference: "QVXR5T",
		Provider:  "amadeus",
		Status:    travel.BookingConfirmed,
	}}
	svc := newOrchestrator(t, []provider.Adapter{primary, named})

	params := provider.BookingParams{
		OfferID:    "am-off-1",
		Passengers: []travel.Passenger{{GivenName: "Ada", FamilyName: "Lovelace"}},
	}
	conf, err := svc.CreateBooking(context.Background(), params, "amadeus")
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if conf.Reference != "QVXR5T" {
		t.Errorf("Reference = %q", conf.Reference)
	}
	if primary.bookingCall != 0 || named.bookingCall != 1 {
		t.Errorf("booking calls: primary=%d named=%d", primary.bookingCall, named.bookingCall)
	}
}

func TestOrchestrator_GetOfferDetailNoFallback(t *testing.T) {
	upstreamErr := &travel.UpstreamError{Provider: "duffel", Message: "down"}
	primary := &fakeAdapter{name: "duffel", detailErr: upstreamErr}
	fallback := &fakeAdapter{name: "amadeus", detailOffer: &travel.Offer{ID: "am-1"}}
	svc := newOrchestrator(t, []provider.Adapter{primary, fallback})

	_, err := svc.GetOfferDetail(context.Background(), "off_1", "")
	var ue *travel.UpstreamError
	if !errors.As(err, &ue) || ue.Provider != "duffel" {
		t.Errorf("error = %v, want primary's error with no fallback", err)
	}
}
