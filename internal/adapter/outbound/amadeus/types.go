package amadeus

// Raw API payload shapes. Flight offers arrive as nested itineraries with
// carrier and aircraft codes resolved through side-band dictionaries.

type rawEndpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal"`
	At       string `json:"at"` // local, no zone
}

type rawSegment struct {
	ID          string      `json:"id"`
	Departure   rawEndpoint `json:"departure"`
	Arrival     rawEndpoint `json:"arrival"`
	CarrierCode string      `json:"carrierCode"`
	Number      string      `json:"number"`
	Aircraft    struct {
		Code string `json:"code"`
	} `json:"aircraft"`
	Duration        string `json:"duration"` // ISO-8601
	NumberOfStops   int    `json:"numberOfStops"`
	BlacklistedInEU bool   `json:"blacklistedInEU"`
}

type rawItinerary struct {
	Duration string       `json:"duration"`
	Segments []rawSegment `json:"segments"`
}

type rawFee struct {
	Amount string `json:"amount"`
	Type   string `json:"type"`
}

type rawPrice struct {
	Currency   string   `json:"currency"`
	Total      string   `json:"total"`
	Base       string   `json:"base"`
	Fees       []rawFee `json:"fees"`
	GrandTotal string   `json:"grandTotal"`
}

type rawFareDetails struct {
	SegmentID      string `json:"segmentId"`
	Cabin          string `json:"cabin"` // ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST
	FareBasis      string `json:"fareBasis"`
	BrandedFare    string `json:"brandedFare"`
	Class          string `json:"class"`
	IncludedCheckedBags struct {
		Quantity int `json:"quantity"`
	} `json:"includedCheckedBags"`
}

type rawTravelerPricing struct {
	TravelerID           string           `json:"travelerId"`
	FareOption           string           `json:"fareOption"`
	TravelerType         string           `json:"travelerType"` // ADULT, CHILD, HELD_INFANT
	Price                rawPrice         `json:"price"`
	FareDetailsBySegment []rawFareDetails `json:"fareDetailsBySegment"`
}

type rawPricingOptions struct {
	FareType                []string `json:"fareType"`
	IncludedCheckedBagsOnly bool     `json:"includedCheckedBagsOnly"`
}

type rawOffer struct {
	ID                       string               `json:"id"`
	Source                   string               `json:"source"`
	InstantTicketingRequired bool                 `json:"instantTicketingRequired"`
	NonHomogeneous           bool                 `json:"nonHomogeneous"`
	OneWay                   bool                 `json:"oneWay"`
	LastTicketingDate        string               `json:"lastTicketingDate"` // ISO date
	NumberOfBookableSeats    int                  `json:"numberOfBookableSeats"`
	Itineraries              []rawItinerary       `json:"itineraries"`
	Price                    rawPrice             `json:"price"`
	PricingOptions           rawPricingOptions    `json:"pricingOptions"`
	ValidatingAirlineCodes   []string             `json:"validatingAirlineCodes"`
	TravelerPricings         []rawTravelerPricing `json:"travelerPricings"`
}

// rawDictionaries carries the side-band code lookups returned with every
// search response.
type rawDictionaries struct {
	Carriers  map[string]string `json:"carriers"`
	Aircraft  map[string]string `json:"aircraft"`
	Locations map[string]struct {
		CityCode    string `json:"cityCode"`
		CountryCode string `json:"countryCode"`
	} `json:"locations"`
}

type searchResponse struct {
	Data         []rawOffer      `json:"data"`
	Dictionaries rawDictionaries `json:"dictionaries"`
}

// pricingResponse is returned by flight-offers pricing, used for offer
// detail refresh.
type pricingResponse struct {
	Data struct {
		FlightOffers []rawOffer `json:"flightOffers"`
	} `json:"data"`
	Dictionaries rawDictionaries `json:"dictionaries"`
}

// pricingRequest re-prices a previously returned offer.
type pricingRequest struct {
	Data struct {
		Type         string     `json:"type"` // "flight-offers-pricing"
		FlightOffers []rawOffer `json:"flightOffers"`
	} `json:"data"`
}

// orderTraveler is one traveler on a flight-order create request.
type orderTraveler struct {
	ID          string `json:"id"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"` // MALE or FEMALE
	Name        struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"name"`
	Contact struct {
		EmailAddress string `json:"emailAddress"`
		Phones       []struct {
			DeviceType         string `json:"deviceType"`
			CountryCallingCode string `json:"countryCallingCode"`
			Number             string `json:"number"`
		} `json:"phones"`
	} `json:"contact"`
	Documents []orderDocument `json:"documents,omitempty"`
}

type orderDocument struct {
	DocumentType     string `json:"documentType"` // "PASSPORT"
	Number           string `json:"number"`
	ExpiryDate       string `json:"expiryDate"`
	IssuanceCountry  string `json:"issuanceCountry"`
	Nationality      string `json:"nationality,omitempty"`
	Holder           bool   `json:"holder"`
}

type orderRequest struct {
	Data struct {
		Type         string          `json:"type"` // "flight-order"
		FlightOffers []rawOffer      `json:"flightOffers"`
		Travelers    []orderTraveler `json:"travelers"`
	} `json:"data"`
}

type rawAssociatedRecord struct {
	Reference        string `json:"reference"`
	CreationDate     string `json:"creationDate"`
	OriginSystemCode string `json:"originSystemCode"`
}

type orderResponse struct {
	Data struct {
		ID                string                `json:"id"`
		AssociatedRecords []rawAssociatedRecord `json:"associatedRecords"`
		FlightOffers      []rawOffer            `json:"flightOffers"`
		Travelers         []orderTraveler       `json:"travelers"`
	} `json:"data"`
}
