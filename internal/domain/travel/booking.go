package travel

import "time"

// BookingStatus is the lifecycle status of a booking confirmation.
// Adapters may only return confirmed bookings synchronously; pending or
// asynchronous states are not modeled here.
type BookingStatus string

const (
	// BookingConfirmed is the only status an adapter may return.
	BookingConfirmed BookingStatus = "confirmed"
)

// PassengerType is the caller-declared passenger category. Adapters never
// infer it from age.
type PassengerType string

const (
	PassengerAdult  PassengerType = "adult"
	PassengerChild  PassengerType = "child"
	PassengerInfant PassengerType = "infant"
)

// Gender tokens accepted on passenger input.
type Gender string

const (
	GenderMale   Gender = "m"
	GenderFemale Gender = "f"
)

// Passport is a passenger identity document. Adapters attach it to an
// upstream request only when all three fields are present.
type Passport struct {
	Number string `json:"number"`
	// ExpiresOn is an ISO date (YYYY-MM-DD).
	ExpiresOn string `json:"expiresOn"`
	// IssuingCountry is a free-text country name or ISO alpha-2 code.
	IssuingCountry string `json:"issuingCountry"`
}

// Passenger is a traveler as submitted by the caller.
type Passenger struct {
	ID         string        `json:"id,omitempty"`
	Type       PassengerType `json:"type"`
	Title      string        `json:"title,omitempty"`
	GivenName  string        `json:"givenName"`
	FamilyName string        `json:"familyName"`
	Gender     Gender        `json:"gender,omitempty"`
	// DateOfBirth is an ISO date (YYYY-MM-DD).
	DateOfBirth string    `json:"dateOfBirth"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Passport    *Passport `json:"passport,omitempty"`
}

// DisplayName returns the passenger's name for error and log messages.
func (p Passenger) DisplayName() string {
	switch {
	case p.GivenName != "" && p.FamilyName != "":
		return p.GivenName + " " + p.FamilyName
	case p.GivenName != "":
		return p.GivenName
	case p.FamilyName != "":
		return p.FamilyName
	case p.ID != "":
		return p.ID
	default:
		return "unnamed passenger"
	}
}

// Ticket links an issued ticket number to a passenger.
type Ticket struct {
	PassengerID  string `json:"passengerId"`
	TicketNumber string `json:"ticketNumber"`
}

// BookingConfirmation is the canonical result of a successful booking.
type BookingConfirmation struct {
	// Reference is the booking reference (PNR or order reference).
	Reference string `json:"reference"`
	// Provider is the tag of the adapter that created the booking.
	Provider string        `json:"provider"`
	Status   BookingStatus `json:"status"`

	// Flights is the full flight detail, reconstituted from the
	// provider's order payload into the same shape as an Offer.
	Flights Offer `json:"flights"`

	Passengers []Passenger `json:"passengers"`
	TotalPrice Price       `json:"totalPrice"`

	BookedAt          time.Time `json:"bookedAt"`
	TicketingDeadline time.Time `json:"ticketingDeadline,omitempty"`

	Tickets []Ticket `json:"tickets,omitempty"`

	// ServicesHonored and ServicesDropped report how many requested
	// ancillary services were carried into the booking versus silently
	// excluded because upstream no longer offered them.
	ServicesHonored int `json:"servicesHonored,omitempty"`
	ServicesDropped int `json:"servicesDropped,omitempty"`
}
