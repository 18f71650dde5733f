package duffel

import (
	"encoding/json"
	"time"
)

// Raw API payload shapes. Monetary amounts arrive as string decimals; the
// normalizer parses them leniently.

type rawAirline struct {
	Name     string `json:"name"`
	IATACode string `json:"iata_code"`
}

type rawPlace struct {
	IATACode string `json:"iata_code"`
	Name     string `json:"name"`
	CityName string `json:"city_name"`
}

type rawBaggage struct {
	Type     string `json:"type"` // "checked" or "carry_on"
	Quantity int    `json:"quantity"`
}

type rawSegmentPassenger struct {
	PassengerID             string       `json:"passenger_id"`
	CabinClass              string       `json:"cabin_class"`
	CabinClassMarketingName string       `json:"cabin_class_marketing_name"`
	Baggages                []rawBaggage `json:"baggages"`
}

type rawAircraft struct {
	Name string `json:"name"`
}

type rawSegment struct {
	ID                           string                `json:"id"`
	Origin                       rawPlace              `json:"origin"`
	Destination                  rawPlace              `json:"destination"`
	OriginTerminal               string                `json:"origin_terminal"`
	DestinationTerminal          string                `json:"destination_terminal"`
	DepartingAt                  string                `json:"departing_at"` // local, no zone
	ArrivingAt                   string                `json:"arriving_at"`
	Duration                     string                `json:"duration"` // ISO-8601
	MarketingCarrier             rawAirline            `json:"marketing_carrier"`
	MarketingCarrierFlightNumber string                `json:"marketing_carrier_flight_number"`
	Aircraft                     *rawAircraft          `json:"aircraft"`
	Stops                        []struct{}            `json:"stops"`
	Passengers                   []rawSegmentPassenger `json:"passengers"`
}

type rawSlice struct {
	ID            string       `json:"id"`
	FareBrandName string       `json:"fare_brand_name"`
	Segments      []rawSegment `json:"segments"`
}

type rawCondition struct {
	Allowed         bool   `json:"allowed"`
	PenaltyAmount   string `json:"penalty_amount"`
	PenaltyCurrency string `json:"penalty_currency"`
}

type rawConditions struct {
	ChangeBeforeDeparture *rawCondition `json:"change_before_departure"`
	RefundBeforeDeparture *rawCondition `json:"refund_before_departure"`
}

type rawOffer struct {
	ID                  string        `json:"id"`
	ExpiresAt           time.Time     `json:"expires_at"`
	TotalAmount         string        `json:"total_amount"`
	BaseAmount          string        `json:"base_amount"`
	TaxAmount           string        `json:"tax_amount"`
	TotalCurrency       string        `json:"total_currency"`
	Owner               rawAirline    `json:"owner"`
	Slices              []rawSlice    `json:"slices"`
	Conditions          rawConditions `json:"conditions"`
	TotalAvailableSeats *int          `json:"total_available_seats"`
}

type rawOfferRequest struct {
	ID     string     `json:"id"`
	Offers []rawOffer `json:"offers"`
}

// offerRequestInput is the search request payload.
type offerRequestInput struct {
	Slices     []offerRequestSlice     `json:"slices"`
	Passengers []offerRequestPassenger `json:"passengers"`
	CabinClass string                  `json:"cabin_class,omitempty"`
	MaxOffers  int                     `json:"max_offers,omitempty"`
}

type offerRequestSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type offerRequestPassenger struct {
	Type string `json:"type"`
}

// passengerInput is one passenger on an order-create request.
type passengerInput struct {
	ID                         string                  `json:"id,omitempty"`
	Type                       string                  `json:"type"`
	Title                      string                  `json:"title,omitempty"`
	Gender                     string                  `json:"gender"`
	GivenName                  string                  `json:"given_name"`
	FamilyName                 string                  `json:"family_name"`
	BornOn                     string                  `json:"born_on"`
	Email                      string                  `json:"email"`
	PhoneNumber                string                  `json:"phone_number"`
	IdentityDocuments          []identityDocumentInput `json:"identity_documents,omitempty"`
}

type identityDocumentInput struct {
	Type                 string `json:"type"`
	UniqueIdentifier     string `json:"unique_identifier"`
	ExpiresOn            string `json:"expires_on"`
	IssuingCountryCode   string `json:"issuing_country_code"`
}

// orderInput is the order-create request payload.
type orderInput struct {
	Type           string             `json:"type"`
	SelectedOffers []string           `json:"selected_offers"`
	Passengers     []passengerInput   `json:"passengers"`
	Services       []serviceSelection `json:"services,omitempty"`
	Payments       []paymentInput     `json:"payments"`
}

type serviceSelection struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type paymentInput struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type rawDocument struct {
	Type             string   `json:"type"` // e.g. "electronic_ticket"
	UniqueIdentifier string   `json:"unique_identifier"`
	PassengerIDs     []string `json:"passenger_ids"`
}

type rawOrderPassenger struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	BornOn     string `json:"born_on"`
}

type rawOrder struct {
	ID                string              `json:"id"`
	BookingReference  string              `json:"booking_reference"`
	CreatedAt         time.Time           `json:"created_at"`
	TotalAmount       string              `json:"total_amount"`
	BaseAmount        string              `json:"base_amount"`
	TaxAmount         string              `json:"tax_amount"`
	TotalCurrency     string              `json:"total_currency"`
	Owner             rawAirline          `json:"owner"`
	Slices            []rawSlice          `json:"slices"`
	Passengers        []rawOrderPassenger `json:"passengers"`
	Documents         []rawDocument       `json:"documents"`
	Conditions        rawConditions       `json:"conditions"`
	PaymentStatus     struct {
		PaymentRequiredBy *time.Time `json:"payment_required_by"`
	} `json:"payment_status"`
}

type rawService struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	TotalAmount     string `json:"total_amount"`
	TotalCurrency   string `json:"total_currency"`
	MaximumQuantity int    `json:"maximum_quantity"`
}

type rawSeatMap struct {
	ID        string          `json:"id"`
	SegmentID string          `json:"segment_id"`
	Cabins    json.RawMessage `json:"cabins"`
}
