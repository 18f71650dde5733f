package amadeus

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

// toOrderTravelers transforms canonical passengers into the flight-order
// shape. The same contract as the NDC transform applies: phone, date of
// birth, email, and a declared passenger type are required; partial
// passport data is dropped with a warning rather than sent incomplete.
func toOrderTravelers(passengers []travel.Passenger, logger *slog.Logger) ([]orderTraveler, []string, error) {
	out := make([]orderTraveler, 0, len(passengers))
	var warnings []string

	for i, p := range passengers {
		name := p.DisplayName()

		if p.Phone == "" {
			return nil, warnings, &travel.ValidationError{Field: "phone", Passenger: name, Message: "is required"}
		}
		if p.DateOfBirth == "" {
			return nil, warnings, &travel.ValidationError{Field: "dateOfBirth", Passenger: name, Message: "is required"}
		}
		if p.Email == "" {
			return nil, warnings, &travel.ValidationError{Field: "email", Passenger: name, Message: "is required"}
		}
		if p.Type == "" {
			return nil, warnings, &travel.ValidationError{Field: "type", Passenger: name, Message: "passenger type (adult/child/infant) is required"}
		}
		if _, ok := travelerTypeToAmadeus(p.Type); !ok {
			return nil, warnings, &travel.ValidationError{Field: "type", Passenger: name, Message: fmt.Sprintf("unknown passenger type %q", p.Type)}
		}

		phone, err := travel.NormalizePhone(p.Phone)
		if err != nil {
			if ve, ok := err.(*travel.ValidationError); ok {
				ve.Passenger = name
				return nil, warnings, ve
			}
			return nil, warnings, err
		}

		traveler := orderTraveler{
			ID:          strconv.Itoa(i + 1),
			DateOfBirth: p.DateOfBirth,
			Gender:      genderToAmadeus(p.Gender),
		}
		if p.ID != "" {
			traveler.ID = p.ID
		}
		traveler.Name.FirstName = p.GivenName
		traveler.Name.LastName = p.FamilyName
		traveler.Contact.EmailAddress = p.Email
		traveler.Contact.Phones = []struct {
			DeviceType         string `json:"deviceType"`
			CountryCallingCode string `json:"countryCallingCode"`
			Number             string `json:"number"`
		}{{
			DeviceType: "MOBILE",
			Number:     strings.TrimPrefix(phone, "+"),
		}}

		if doc, warning := toOrderDocument(p, name); doc != nil {
			traveler.Documents = []orderDocument{*doc}
		} else if warning != "" {
			warnings = append(warnings, warning)
			logger.Warn("dropping partial passport data", "passenger", name)
		}

		out = append(out, traveler)
	}
	return out, warnings, nil
}

// genderToAmadeus maps the canonical gender token, defaulting
// deterministically when absent or invalid.
func genderToAmadeus(g travel.Gender) string {
	if g == travel.GenderFemale {
		return "FEMALE"
	}
	return "MALE"
}

// toOrderDocument builds a passport document only when number, expiry, and
// issuing country are all present.
func toOrderDocument(p travel.Passenger, name string) (*orderDocument, string) {
	passport := p.Passport
	if passport == nil {
		return nil, ""
	}
	if passport.Number == "" || passport.ExpiresOn == "" || passport.IssuingCountry == "" {
		return nil, fmt.Sprintf("passenger %s: incomplete passport data dropped (number, expiry, and issuing country are all required)", name)
	}
	country, ok := travel.CountryCode(passport.IssuingCountry)
	if !ok {
		return nil, fmt.Sprintf("passenger %s: passport dropped, unrecognized issuing country %q", name, passport.IssuingCountry)
	}
	return &orderDocument{
		DocumentType:    "PASSPORT",
		Number:          passport.Number,
		ExpiryDate:      passport.ExpiresOn,
		IssuanceCountry: country,
		Holder:          true,
	}, ""
}
