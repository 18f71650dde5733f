package duffel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tripforge/tripforge/internal/domain/travel"
	"github.com/tripforge/tripforge/pkg/iso8601"
)

// Normalization from raw API shapes into the canonical model. These
// transforms are total over well-formed payloads: a missing optional field
// degrades to a safe default instead of failing the whole offer.

// cabin-class vocabulary mapping, both directions.
var cabinFromDuffel = map[string]travel.CabinClass{
	"economy":         travel.CabinEconomy,
	"premium_economy": travel.CabinPremiumEconomy,
	"business":        travel.CabinBusiness,
	"first":           travel.CabinFirst,
}

var cabinToDuffel = map[travel.CabinClass]string{
	travel.CabinEconomy:        "economy",
	travel.CabinPremiumEconomy: "premium_economy",
	travel.CabinBusiness:       "business",
	travel.CabinFirst:          "first",
}

// parseAmount parses a string decimal amount, returning 0 for anything
// unparseable. Price breakdowns are informational, so a bad component must
// not fail the whole normalization.
func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseLocalTime parses the zone-less local timestamps the API uses for
// departures and arrivals. Returns the zero time on failure.
func parseLocalTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
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

// toOffer normalizes a raw offer. The raw payload is retained on the
// canonical offer for audit.
func toOffer(raw rawOffer) travel.Offer {
	offer := travel.Offer{
		ID:       raw.ID,
		Provider: ProviderName,
		Price: travel.Price{
			Total:    parseAmount(raw.TotalAmount),
			Base:     parseAmount(raw.BaseAmount),
			Taxes:    parseAmount(raw.TaxAmount),
			Currency: raw.TotalCurrency,
		},
		ValidatingAirline: travel.Airline{Name: raw.Owner.Name, Code: raw.Owner.IATACode},
		ExpiresAt:         raw.ExpiresAt,
		BookableSeats:     travel.DefaultBookableSeats,
	}

	if raw.TotalAvailableSeats != nil && *raw.TotalAvailableSeats > 0 {
		offer.BookableSeats = *raw.TotalAvailableSeats
	}

	if c := raw.Conditions.ChangeBeforeDeparture; c != nil {
		offer.Changeable = c.Allowed
		if c.Allowed && c.PenaltyAmount != "" {
			offer.ChangePenalty = &travel.Penalty{
				Amount:   parseAmount(c.PenaltyAmount),
				Currency: c.PenaltyCurrency,
			}
		}
	}
	if r := raw.Conditions.RefundBeforeDeparture; r != nil {
		offer.Refundable = r.Allowed
		if r.Allowed && r.PenaltyAmount != "" {
			offer.RefundPenalty = &travel.Penalty{
				Amount:   parseAmount(r.PenaltyAmount),
				Currency: r.PenaltyCurrency,
			}
		}
	}

	if len(raw.Slices) > 0 {
		offer.FareBrand = raw.Slices[0].FareBrandName
		offer.Outbound = toSegments(raw.Slices[0])
	}
	if len(raw.Slices) > 1 {
		offer.Inbound = toSegments(raw.Slices[1])
	}

	// Cabin class and its marketing name come from the first segment
	// passenger; the API states them per segment-passenger.
	if cabin, marketing := firstCabin(raw.Slices); cabin != "" {
		offer.CabinClass = cabin
		offer.CabinMarketingName = marketing
	}

	if rawJSON, err := json.Marshal(raw); err == nil {
		offer.Raw = rawJSON
	}
	return offer
}

// firstCabin finds the first stated cabin class across slices.
func firstCabin(slices []rawSlice) (travel.CabinClass, string) {
	for _, s := range slices {
		for _, seg := range s.Segments {
			for _, p := range seg.Passengers {
				if cabin, ok := cabinFromDuffel[p.CabinClass]; ok {
					return cabin, p.CabinClassMarketingName
				}
			}
		}
	}
	return "", ""
}

// toSegments normalizes a slice's segments.
func toSegments(s rawSlice) []travel.Segment {
	out := make([]travel.Segment, 0, len(s.Segments))
	for _, seg := range s.Segments {
		canonical := travel.Segment{
			Airline: travel.Airline{
				Name: seg.MarketingCarrier.Name,
				Code: seg.MarketingCarrier.IATACode,
			},
			FlightNumber: seg.MarketingCarrier.IATACode + seg.MarketingCarrierFlightNumber,
			Departure: travel.SegmentEndpoint{
				Airport:  seg.Origin.Name,
				Code:     seg.Origin.IATACode,
				City:     seg.Origin.CityName,
				Terminal: seg.OriginTerminal,
				At:       parseLocalTime(seg.DepartingAt),
			},
			Arrival: travel.SegmentEndpoint{
				Airport:  seg.Destination.Name,
				Code:     seg.Destination.IATACode,
				City:     seg.Destination.CityName,
				Terminal: seg.DestinationTerminal,
				At:       parseLocalTime(seg.ArrivingAt),
			},
			Stops: len(seg.Stops),
		}
		canonical.Duration = segmentDuration(seg.Duration, canonical.Departure.At, canonical.Arrival.At)
		if seg.Aircraft != nil {
			canonical.Aircraft = seg.Aircraft.Name
		}
		if len(seg.Passengers) > 0 {
			p := seg.Passengers[0]
			if cabin, ok := cabinFromDuffel[p.CabinClass]; ok {
				canonical.CabinClass = cabin
			}
			canonical.Baggage = baggageSummary(p.Baggages)
		}
		out = append(out, canonical)
	}
	return out
}

// baggageSummary flattens the nested per-passenger baggage structures into
// human-readable allowance strings.
func baggageSummary(baggages []rawBaggage) []string {
	var out []string
	for _, b := range baggages {
		if b.Quantity <= 0 {
			continue
		}
		var kind string
		switch b.Type {
		case "checked":
			kind = "checked bag"
		case "carry_on":
			kind = "carry-on bag"
		default:
			kind = b.Type
		}
		plural := ""
		if b.Quantity > 1 {
			plural = "s"
		}
		out = append(out, fmt.Sprintf("%d %s%s", b.Quantity, kind, plural))
	}
	return out
}

// orderToOffer reconstitutes a canonical offer-shaped flights view from an
// order payload. Orders do not share the offer response shape, so the
// confirmation's flight detail is rebuilt here.
func orderToOffer(raw rawOrder) travel.Offer {
	offer := travel.Offer{
		ID:       raw.ID,
		Provider: ProviderName,
		Price: travel.Price{
			Total:    parseAmount(raw.TotalAmount),
			Base:     parseAmount(raw.BaseAmount),
			Taxes:    parseAmount(raw.TaxAmount),
			Currency: raw.TotalCurrency,
		},
		ValidatingAirline: travel.Airline{Name: raw.Owner.Name, Code: raw.Owner.IATACode},
		BookableSeats:     travel.DefaultBookableSeats,
	}

	if c := raw.Conditions.ChangeBeforeDeparture; c != nil {
		offer.Changeable = c.Allowed
	}
	if r := raw.Conditions.RefundBeforeDeparture; r != nil {
		offer.Refundable = r.Allowed
	}

	if len(raw.Slices) > 0 {
		offer.FareBrand = raw.Slices[0].FareBrandName
		offer.Outbound = toSegments(raw.Slices[0])
	}
	if len(raw.Slices) > 1 {
		offer.Inbound = toSegments(raw.Slices[1])
	}
	if cabin, marketing := firstCabin(raw.Slices); cabin != "" {
		offer.CabinClass = cabin
		offer.CabinMarketingName = marketing
	}

	if rawJSON, err := json.Marshal(raw); err == nil {
		offer.Raw = rawJSON
	}
	return offer
}

// toConfirmation builds the canonical booking confirmation from an order.
func toConfirmation(raw rawOrder, passengers []travel.Passenger) *travel.BookingConfirmation {
	conf := &travel.BookingConfirmation{
		Reference:  raw.BookingReference,
		Provider:   ProviderName,
		Status:     travel.BookingConfirmed,
		Flights:    orderToOffer(raw),
		Passengers: passengers,
		TotalPrice: travel.Price{
			Total:    parseAmount(raw.TotalAmount),
			Base:     parseAmount(raw.BaseAmount),
			Taxes:    parseAmount(raw.TaxAmount),
			Currency: raw.TotalCurrency,
		},
		BookedAt: raw.CreatedAt,
	}
	if raw.PaymentStatus.PaymentRequiredBy != nil {
		conf.TicketingDeadline = *raw.PaymentStatus.PaymentRequiredBy
	}
	for _, doc := range raw.Documents {
		if doc.Type != "electronic_ticket" {
			continue
		}
		passengerID := ""
		if len(doc.PassengerIDs) > 0 {
			passengerID = doc.PassengerIDs[0]
		}
		conf.Tickets = append(conf.Tickets, travel.Ticket{
			PassengerID:  passengerID,
			TicketNumber: doc.UniqueIdentifier,
		})
	}
	return conf
}
