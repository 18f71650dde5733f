package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tripforge/tripforge/internal/domain/provider"
	"github.com/tripforge/tripforge/internal/domain/travel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tokenHandler(t *testing.T, calls *atomic.Int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.Method != http.MethodPost {
			t.Errorf("token method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing token form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1", ExpiresIn: 1800})
	}
}

func sampleSearchResponse() searchResponse {
	return searchResponse{
		Data: []rawOffer{{
			ID:                    "1",
			NumberOfBookableSeats: 4,
			LastTicketingDate:     "2026-03-05",
			Price: rawPrice{
				Currency:   "EUR",
				Total:      "612.30",
				Base:       "480.00",
				GrandTotal: "612.30",
			},
			ValidatingAirlineCodes: []string{"LH"},
			Itineraries: []rawItinerary{{
				Duration: "PT1H40M",
				Segments: []rawSegment{{
					ID:          "seg1",
					Departure:   rawEndpoint{IATACode: "FRA", Terminal: "1", At: "2026-03-10T07:30:00"},
					Arrival:     rawEndpoint{IATACode: "CDG", At: "2026-03-10T09:10:00"},
					CarrierCode: "LH",
					Number:      "1028",
					Duration:    "PT1H40M",
					Aircraft:    struct {
						Code string `json:"code"`
					}{Code: "32N"},
				}},
			}},
			TravelerPricings: []rawTravelerPricing{{
				TravelerID:   "1",
				TravelerType: "ADULT",
				FareDetailsBySegment: []rawFareDetails{{
					SegmentID:   "seg1",
					Cabin:       "BUSINESS",
					BrandedFare: "BUSINESS_SAVER",
					IncludedCheckedBags: struct {
						Quantity int `json:"quantity"`
					}{Quantity: 2},
				}},
			}},
		}},
		Dictionaries: rawDictionaries{
			Carriers: map[string]string{"LH": "Lufthansa"},
			Aircraft: map[string]string{"32N": "Airbus A320neo"},
		},
	}
}

func newTestAdapter(t *testing.T, mux *http.ServeMux, now *time.Time, opts ...AdapterOption) *Adapter {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client := NewClient("id", "secret", discardLogger(), WithBaseURL(srv.URL))
	clock := func() time.Time { return *now }
	client.now = clock
	opts = append(opts, WithClock(clock))
	return NewAdapter(client, discardLogger(), opts...)
}

func TestAdapterSearch(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var tokenCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", tokenHandler(t, &tokenCalls))
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("travelClass"); got != "BUSINESS" {
			t.Errorf("travelClass = %q", got)
		}
		if got := r.URL.Query().Get("adults"); got != "1" {
			t.Errorf("adults = %q", got)
		}
		_ = json.NewEncoder(w).Encode(sampleSearchResponse())
	})

	a := newTestAdapter(t, mux, &now)
	offers, err := a.Search(context.Background(), travel.SearchParams{
		Origin:        "FRA",
		Destination:   "CDG",
		DepartureDate: "2026-03-10",
		Adults:        1,
		CabinClass:    travel.CabinBusiness,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("offers = %d, want 1", len(offers))
	}

	offer := offers[0]
	if offer.Provider != ProviderName {
		t.Errorf("Provider = %q", offer.Provider)
	}
	if offer.Price.Total != 612.30 || offer.Price.Currency != "EUR" {
		t.Errorf("Price = %+v", offer.Price)
	}
	if offer.BookableSeats != 4 {
		t.Errorf("BookableSeats = %d, want 4", offer.BookableSeats)
	}
	if offer.CabinClass != travel.CabinBusiness {
		t.Errorf("CabinClass = %q, want business", offer.CabinClass)
	}
	if offer.ValidatingAirline.Name != "Lufthansa" {
		t.Errorf("ValidatingAirline = %+v, dictionary not applied", offer.ValidatingAirline)
	}
	want := now.Add(DefaultQuoteTTL)
	if !offer.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want retrieval time plus quote TTL %v", offer.ExpiresAt, want)
	}

	seg := offer.Outbound[0]
	if seg.FlightNumber != "LH1028" {
		t.Errorf("FlightNumber = %q", seg.FlightNumber)
	}
	if seg.Aircraft != "Airbus A320neo" {
		t.Errorf("Aircraft = %q, dictionary not applied", seg.Aircraft)
	}
	if len(seg.Baggage) != 1 || seg.Baggage[0] != "2 checked bags" {
		t.Errorf("Baggage = %v", seg.Baggage)
	}

	// Second search reuses the cached token.
	if _, err := a.Search(context.Background(), travel.SearchParams{
		Origin: "FRA", Destination: "CDG", DepartureDate: "2026-03-10", Adults: 1,
	}); err != nil {
		t.Fatalf("second Search: %v", err)
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Errorf("token calls = %d, want 1 (cached)", got)
	}
}

func TestAdapterQuoteExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", tokenHandler(t, nil))
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sampleSearchResponse())
	})
	pricingCalled := false
	mux.HandleFunc("/v1/shopping/flight-offers/pricing", func(w http.ResponseWriter, r *http.Request) {
		pricingCalled = true
	})

	a := newTestAdapter(t, mux, &now, WithQuoteTTL(10*time.Minute))
	if _, err := a.Search(context.Background(), travel.SearchParams{
		Origin: "FRA", Destination: "CDG", DepartureDate: "2026-03-10", Adults: 1,
	}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	now = now.Add(15 * time.Minute)
	_, err := a.GetOfferDetail(context.Background(), "1")
	var expired *travel.ExpiredOfferError
	if !errors.As(err, &expired) {
		t.Fatalf("error = %v, want *travel.ExpiredOfferError", err)
	}
	if pricingCalled {
		t.Error("pricing endpoint was called for an expired quote")
	}
}

func TestAdapterGetOfferDetailReprices(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", tokenHandler(t, nil))
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sampleSearchResponse())
	})
	mux.HandleFunc("/v1/shopping/flight-offers/pricing", func(w http.ResponseWriter, r *http.Request) {
		var req pricingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding pricing request: %v", err)
		}
		if len(req.Data.FlightOffers) != 1 || req.Data.FlightOffers[0].ID != "1" {
			t.Errorf("pricing request offers = %+v, want the held quote", req.Data.FlightOffers)
		}
		repriced := req.Data.FlightOffers[0]
		repriced.Price.GrandTotal = "640.00"
		var resp pricingResponse
		resp.Data.FlightOffers = []rawOffer{repriced}
		_ = json.NewEncoder(w).Encode(resp)
	})

	a := newTestAdapter(t, mux, &now)
	if _, err := a.Search(context.Background(), travel.SearchParams{
		Origin: "FRA", Destination: "CDG", DepartureDate: "2026-03-10", Adults: 1,
	}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	offer, err := a.GetOfferDetail(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetOfferDetail: %v", err)
	}
	if offer.Price.Total != 640.00 {
		t.Errorf("Price.Total = %v, want repriced 640.00", offer.Price.Total)
	}
	if offer.ValidatingAirline.Name != "Lufthansa" {
		t.Error("held dictionary not reused when pricing response omits one")
	}
}

func TestAdapterUnknownOfferTreatedAsExpired(t *testing.T) {
	now := time.Now()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", tokenHandler(t, nil))

	a := newTestAdapter(t, mux, &now)
	_, err := a.GetOfferDetail(context.Background(), "never-seen")
	var expired *travel.ExpiredOfferError
	if !errors.As(err, &expired) {
		t.Fatalf("error = %v, want *travel.ExpiredOfferError", err)
	}
}

func TestAdapterCreateBooking(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", tokenHandler(t, nil))
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sampleSearchResponse())
	})
	mux.HandleFunc("/v1/booking/flight-orders", func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding order request: %v", err)
		}
		if req.Data.Type != "flight-order" {
			t.Errorf("order type = %q", req.Data.Type)
		}
		if len(req.Data.Travelers) != 1 {
			t.Fatalf("travelers = %d, want 1", len(req.Data.Travelers))
		}
		traveler := req.Data.Travelers[0]
		if traveler.Gender != "FEMALE" {
			t.Errorf("Gender = %q, want FEMALE", traveler.Gender)
		}
		if len(traveler.Contact.Phones) != 1 || traveler.Contact.Phones[0].Number != "442079460958" {
			t.Errorf("Phones = %+v", traveler.Contact.Phones)
		}

		var resp orderResponse
		resp.Data.ID = "eJzTd9f3"
		resp.Data.AssociatedRecords = []rawAssociatedRecord{{Reference: "QVXR5T"}}
		resp.Data.FlightOffers = req.Data.FlightOffers
		_ = json.NewEncoder(w).Encode(resp)
	})

	a := newTestAdapter(t, mux, &now)
	if _, err := a.Search(context.Background(), travel.SearchParams{
		Origin: "FRA", Destination: "CDG", DepartureDate: "2026-03-10", Adults: 1,
	}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	conf, err := a.CreateBooking(context.Background(), provider.BookingParams{
		OfferID: "1",
		Passengers: []travel.Passenger{{
			Type:        travel.PassengerAdult,
			GivenName:   "Ada",
			FamilyName:  "Lovelace",
			Gender:      travel.GenderFemale,
			DateOfBirth: "1990-12-10",
			Email:       "ada@example.com",
			Phone:       "+44 20 7946 0958",
		}},
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if conf.Reference != "QVXR5T" {
		t.Errorf("Reference = %q, want the PNR from the associated record", conf.Reference)
	}
	if conf.Status != travel.BookingConfirmed {
		t.Errorf("Status = %q", conf.Status)
	}
	if conf.TotalPrice.Total != 612.30 {
		t.Errorf("TotalPrice = %+v", conf.TotalPrice)
	}
}

func TestAdapterCapabilities(t *testing.T) {
	a := NewAdapter(NewClient("id", "secret", discardLogger()), discardLogger())
	if a.Supports(provider.CapabilitySeatMaps) || a.Supports(provider.CapabilityServices) {
		t.Error("optional capabilities should not be supported")
	}
	if _, err := a.SeatMaps(context.Background(), "1"); !errors.Is(err, provider.ErrCapabilityNotSupported) {
		t.Errorf("SeatMaps error = %v", err)
	}
	if _, err := a.AvailableServices(context.Background(), "1"); !errors.Is(err, provider.ErrCapabilityNotSupported) {
		t.Errorf("AvailableServices error = %v", err)
	}
}
