package amadeus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tripforge/tripforge/internal/domain/travel"
	"github.com/tripforge/tripforge/pkg/iso8601"
)

// cabinFromAmadeus maps the upstream cabin vocabulary to the canonical one.
var cabinFromAmadeus = map[string]travel.CabinClass{
	"ECONOMY":         travel.CabinEconomy,
	"PREMIUM_ECONOMY": travel.CabinPremiumEconomy,
	"BUSINESS":        travel.CabinBusiness,
	"FIRST":           travel.CabinFirst,
}

// cabinToAmadeus is the reverse mapping, used on search requests.
var cabinToAmadeus = map[travel.CabinClass]string{
	travel.CabinEconomy:        "ECONOMY",
	travel.CabinPremiumEconomy: "PREMIUM_ECONOMY",
	travel.CabinBusiness:       "BUSINESS",
	travel.CabinFirst:          "FIRST",
}

// travelerTypeToAmadeus maps the canonical passenger type vocabulary.
func travelerTypeToAmadeus(t travel.PassengerType) (string, bool) {
	switch t {
	case travel.PassengerAdult:
		return "ADULT", true
	case travel.PassengerChild:
		return "CHILD", true
	case travel.PassengerInfant:
		return "HELD_INFANT", true
	default:
		return "", false
	}
}

func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseLocalTime parses the zone-less local timestamps used on segment
// endpoints. Returns the zero time when the value does not parse.
func parseLocalTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// segmentDuration keeps the supplier's duration string when it is a valid
// ISO-8601 duration, otherwise derives one from the endpoint times.
func segmentDuration(raw string, dep, arr time.Time) string {
	if _, err := iso8601.ParseDuration(raw); err == nil {
		return raw
	}
	if dep.IsZero() || arr.IsZero() || !arr.After(dep) {
		return ""
	}
	return iso8601.FormatDuration(arr.Sub(dep))
}

// toOffer normalizes a raw offer. GDS offers carry no expiry timestamp, so
// the validity window is stamped client-side: retrieval time plus the quote
// TTL. The raw payload is retained for re-pricing and order creation.
func toOffer(raw rawOffer, dict rawDictionaries, retrievedAt time.Time, quoteTTL time.Duration) travel.Offer {
	offer := travel.Offer{
		ID:       raw.ID,
		Provider: ProviderName,
		Price: travel.Price{
			Total:    parseAmount(firstNonEmpty(raw.Price.GrandTotal, raw.Price.Total)),
			Base:     parseAmount(raw.Price.Base),
			Currency: raw.Price.Currency,
		},
		ExpiresAt:     retrievedAt.Add(quoteTTL),
		BookableSeats: travel.DefaultBookableSeats,
	}
	offer.Price.Taxes = offer.Price.Total - offer.Price.Base
	if offer.Price.Taxes < 0 {
		offer.Price.Taxes = 0
	}

	if raw.NumberOfBookableSeats > 0 {
		offer.BookableSeats = raw.NumberOfBookableSeats
	}

	if len(raw.ValidatingAirlineCodes) > 0 {
		code := raw.ValidatingAirlineCodes[0]
		offer.ValidatingAirline = travel.Airline{Code: code, Name: dict.Carriers[code]}
	}

	fareBySegment := fareDetailsIndex(raw.TravelerPricings)

	if len(raw.Itineraries) > 0 {
		offer.Outbound = toSegments(raw.Itineraries[0], dict, fareBySegment)
	}
	if len(raw.Itineraries) > 1 {
		offer.Inbound = toSegments(raw.Itineraries[1], dict, fareBySegment)
	}

	if len(raw.TravelerPricings) > 0 && len(raw.TravelerPricings[0].FareDetailsBySegment) > 0 {
		fd := raw.TravelerPricings[0].FareDetailsBySegment[0]
		if cabin, ok := cabinFromAmadeus[fd.Cabin]; ok {
			offer.CabinClass = cabin
		}
		offer.FareBrand = fd.BrandedFare
	}

	if rawJSON, err := json.Marshal(raw); err == nil {
		offer.Raw = rawJSON
	}
	return offer
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// fareDetailsIndex indexes the first traveler's fare details by segment id.
func fareDetailsIndex(pricings []rawTravelerPricing) map[string]rawFareDetails {
	out := make(map[string]rawFareDetails)
	if len(pricings) == 0 {
		return out
	}
	for _, fd := range pricings[0].FareDetailsBySegment {
		out[fd.SegmentID] = fd
	}
	return out
}

func toSegments(it rawItinerary, dict rawDictionaries, fares map[string]rawFareDetails) []travel.Segment {
	out := make([]travel.Segment, 0, len(it.Segments))
	for _, seg := range it.Segments {
		s := travel.Segment{
			Airline: travel.Airline{
				Code: seg.CarrierCode,
				Name: dict.Carriers[seg.CarrierCode],
			},
			FlightNumber: seg.CarrierCode + seg.Number,
			Departure: travel.SegmentEndpoint{
				Code:     seg.Departure.IATACode,
				Terminal: seg.Departure.Terminal,
				At:       parseLocalTime(seg.Departure.At),
			},
			Arrival: travel.SegmentEndpoint{
				Code:     seg.Arrival.IATACode,
				Terminal: seg.Arrival.Terminal,
				At:       parseLocalTime(seg.Arrival.At),
			},
			Stops:    seg.NumberOfStops,
			Aircraft: dict.Aircraft[seg.Aircraft.Code],
		}
		s.Duration = segmentDuration(seg.Duration, s.Departure.At, s.Arrival.At)
		if fd, ok := fares[seg.ID]; ok {
			if cabin, ok := cabinFromAmadeus[fd.Cabin]; ok {
				s.CabinClass = cabin
			}
			if q := fd.IncludedCheckedBags.Quantity; q > 0 {
				bag := "checked bag"
				if q > 1 {
					bag = "checked bags"
				}
				s.Baggage = []string{fmt.Sprintf("%d %s", q, bag)}
			}
		}
		out = append(out, s)
	}
	return out
}

// toConfirmation builds the canonical booking confirmation from a flight
// order. The PNR reference comes from the first associated record; the
// order id stands in when none is present.
func toConfirmation(resp orderResponse, dict rawDictionaries, passengers []travel.Passenger, bookedAt time.Time, quoteTTL time.Duration) *travel.BookingConfirmation {
	conf := &travel.BookingConfirmation{
		Reference:  resp.Data.ID,
		Provider:   ProviderName,
		Status:     travel.BookingConfirmed,
		Passengers: passengers,
		BookedAt:   bookedAt,
	}
	if len(resp.Data.AssociatedRecords) > 0 && resp.Data.AssociatedRecords[0].Reference != "" {
		conf.Reference = resp.Data.AssociatedRecords[0].Reference
	}
	if len(resp.Data.FlightOffers) > 0 {
		raw := resp.Data.FlightOffers[0]
		conf.Flights = toOffer(raw, dict, bookedAt, quoteTTL)
		conf.TotalPrice = conf.Flights.Price
		if raw.LastTicketingDate != "" {
			if d, err := time.Parse("2006-01-02", raw.LastTicketingDate); err == nil {
				// Ticketing closes at the end of that day, UTC.
				conf.TicketingDeadline = d.AddDate(0, 0, 1).UTC()
			}
		}
	}
	return conf
}
