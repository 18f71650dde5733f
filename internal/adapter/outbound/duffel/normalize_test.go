package duffel

import (
	"testing"
	"time"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

func intPtr(i int) *int { return &i }

func sampleRawOffer() rawOffer {
	return rawOffer{
		ID:            "off_123",
		ExpiresAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TotalAmount:   "842.40",
		BaseAmount:    "700.00",
		TaxAmount:     "142.40",
		TotalCurrency: "EUR",
		Owner:         rawAirline{Name: "British Airways", IATACode: "BA"},
		Conditions: rawConditions{
			ChangeBeforeDeparture: &rawCondition{Allowed: true, PenaltyAmount: "75.00", PenaltyCurrency: "EUR"},
			RefundBeforeDeparture: &rawCondition{Allowed: false},
		},
		Slices: []rawSlice{
			{
				FareBrandName: "Economy Flex",
				Segments: []rawSegment{
					{
						Origin:                       rawPlace{IATACode: "LHR", Name: "Heathrow", CityName: "London"},
						Destination:                  rawPlace{IATACode: "JFK", Name: "John F. Kennedy", CityName: "New York"},
						OriginTerminal:               "5",
						DepartingAt:                  "2026-03-10T09:30:00",
						ArrivingAt:                   "2026-03-10T12:45:00",
						Duration:                     "PT8H15M",
						MarketingCarrier:             rawAirline{Name: "British Airways", IATACode: "BA"},
						MarketingCarrierFlightNumber: "117",
						Aircraft:                     &rawAircraft{Name: "Boeing 777-300ER"},
						Passengers: []rawSegmentPassenger{
							{
								CabinClass:              "economy",
								CabinClassMarketingName: "World Traveller",
								Baggages: []rawBaggage{
									{Type: "checked", Quantity: 1},
									{Type: "carry_on", Quantity: 1},
								},
							},
						},
					},
				},
			},
			{
				Segments: []rawSegment{
					{
						Origin:                       rawPlace{IATACode: "JFK"},
						Destination:                  rawPlace{IATACode: "LHR"},
						DepartingAt:                  "2026-03-17T19:00:00",
						ArrivingAt:                   "2026-03-18T07:10:00",
						Duration:                     "PT7H10M",
						MarketingCarrier:             rawAirline{Name: "British Airways", IATACode: "BA"},
						MarketingCarrierFlightNumber: "112",
					},
				},
			},
		},
	}
}

func TestToOffer(t *testing.T) {
	offer := toOffer(sampleRawOffer())

	if offer.ID != "off_123" {
		t.Errorf("ID = %q, want off_123", offer.ID)
	}
	if offer.Provider != ProviderName {
		t.Errorf("Provider = %q, want %q", offer.Provider, ProviderName)
	}
	if offer.Price.Total != 842.40 {
		t.Errorf("Price.Total = %v, want 842.40", offer.Price.Total)
	}
	if offer.Price.Currency != "EUR" {
		t.Errorf("Price.Currency = %q, want EUR", offer.Price.Currency)
	}
	if offer.ValidatingAirline.Code != "BA" {
		t.Errorf("ValidatingAirline.Code = %q, want BA", offer.ValidatingAirline.Code)
	}
	if offer.FareBrand != "Economy Flex" {
		t.Errorf("FareBrand = %q, want Economy Flex", offer.FareBrand)
	}
	if offer.CabinClass != travel.CabinEconomy {
		t.Errorf("CabinClass = %q, want economy", offer.CabinClass)
	}
	if offer.CabinMarketingName != "World Traveller" {
		t.Errorf("CabinMarketingName = %q, want World Traveller", offer.CabinMarketingName)
	}
	if !offer.Changeable {
		t.Error("Changeable = false, want true")
	}
	if offer.ChangePenalty == nil || offer.ChangePenalty.Amount != 75.00 {
		t.Errorf("ChangePenalty = %+v, want amount 75.00", offer.ChangePenalty)
	}
	if offer.Refundable {
		t.Error("Refundable = true, want false")
	}
	if offer.RefundPenalty != nil {
		t.Errorf("RefundPenalty = %+v, want nil", offer.RefundPenalty)
	}
	if len(offer.Outbound) != 1 || len(offer.Inbound) != 1 {
		t.Fatalf("segments = %d outbound, %d inbound, want 1 and 1", len(offer.Outbound), len(offer.Inbound))
	}
	if offer.Raw == nil {
		t.Error("Raw payload not retained")
	}

	seg := offer.Outbound[0]
	if seg.FlightNumber != "BA117" {
		t.Errorf("FlightNumber = %q, want BA117", seg.FlightNumber)
	}
	if seg.Departure.Code != "LHR" || seg.Departure.Terminal != "5" {
		t.Errorf("Departure = %+v, want LHR terminal 5", seg.Departure)
	}
	if seg.Duration != "PT8H15M" {
		t.Errorf("Duration = %q, want PT8H15M", seg.Duration)
	}
	if seg.Aircraft != "Boeing 777-300ER" {
		t.Errorf("Aircraft = %q", seg.Aircraft)
	}
	wantBags := []string{"1 checked bag", "1 carry-on bag"}
	if len(seg.Baggage) != len(wantBags) {
		t.Fatalf("Baggage = %v, want %v", seg.Baggage, wantBags)
	}
	for i, b := range wantBags {
		if seg.Baggage[i] != b {
			t.Errorf("Baggage[%d] = %q, want %q", i, seg.Baggage[i], b)
		}
	}
}

func TestToOfferDefaultSeats(t *testing.T) {
	raw := sampleRawOffer()
	raw.TotalAvailableSeats = nil
	if got := toOffer(raw).BookableSeats; got != travel.DefaultBookableSeats {
		t.Errorf("BookableSeats = %d, want %d", got, travel.DefaultBookableSeats)
	}

	raw.TotalAvailableSeats = intPtr(3)
	if got := toOffer(raw).BookableSeats; got != 3 {
		t.Errorf("BookableSeats = %d, want 3", got)
	}

	// Zero from upstream is treated as absent, not as sold out.
	raw.TotalAvailableSeats = intPtr(0)
	if got := toOffer(raw).BookableSeats; got != travel.DefaultBookableSeats {
		t.Errorf("BookableSeats with zero = %d, want %d", got, travel.DefaultBookableSeats)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"842.40", 842.40},
		{"0.00", 0},
		{"", 0},
		{"not-a-number", 0},
	}
	for _, tc := range cases {
		if got := parseAmount(tc.in); got != tc.want {
			t.Errorf("parseAmount(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseLocalTime(t *testing.T) {
	got := parseLocalTime("2026-03-10T09:30:00")
	if got.IsZero() {
		t.Fatal("local timestamp did not parse")
	}
	if got.Hour() != 9 || got.Minute() != 30 {
		t.Errorf("parsed %v, want 09:30", got)
	}
	if !parseLocalTime("garbage").IsZero() {
		t.Error("garbage timestamp should parse to zero time")
	}
}

func TestToConfirmation(t *testing.T) {
	deadline := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	raw := rawOrder{
		ID:               "ord_1",
		BookingReference: "ABC123",
		TotalAmount:      "900.00",
		TotalCurrency:    "EUR",
		CreatedAt:        time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		Documents: []rawDocument{
			{Type: "electronic_ticket", UniqueIdentifier: "125-4567890123", PassengerIDs: []string{"pas_1"}},
			{Type: "electronic_miscellaneous_document", UniqueIdentifier: "ignored"},
		},
	}
	raw.PaymentStatus.PaymentRequiredBy = &deadline

	conf := toConfirmation(raw, []travel.Passenger{{GivenName: "Ada", FamilyName: "Lovelace"}})
	if conf.Reference != "ABC123" {
		t.Errorf("Reference = %q, want ABC123", conf.Reference)
	}
	if conf.Status != travel.BookingConfirmed {
		t.Errorf("Status = %q, want confirmed", conf.Status)
	}
	if !conf.TicketingDeadline.Equal(deadline) {
		t.Errorf("TicketingDeadline = %v, want %v", conf.TicketingDeadline, deadline)
	}
	if len(conf.Tickets) != 1 {
		t.Fatalf("Tickets = %d, want 1 (non-ticket documents excluded)", len(conf.Tickets))
	}
	if conf.Tickets[0].TicketNumber != "125-4567890123" || conf.Tickets[0].PassengerID != "pas_1" {
		t.Errorf("Ticket = %+v", conf.Tickets[0])
	}
}

func TestSegmentDuration(t *testing.T) {
	dep := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	arr := time.Date(2026, 4, 1, 11, 30, 0, 0, time.UTC)

	if got := segmentDuration("PT8H15M", dep, arr); got != "PT8H15M" {
		t.Errorf("valid duration rewritten to %q", got)
	}
	if got := segmentDuration("", dep, arr); got != "PT2H30M" {
		t.Errorf("derived duration = %q, want PT2H30M", got)
	}
	if got := segmentDuration("8h15m", dep, time.Time{}); got != "" {
		t.Errorf("unparseable inputs = %q, want empty", got)
	}
}
