package duffel

import (
	"fmt"
	"log/slog"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

// defaultGender is the deterministic substitution when a passenger's gender
// token is absent or unrecognized. Documented default; not inferred.
const defaultGender = "m"

// toPassengerInputs transforms canonical passengers into the order-create
// shape. Returns warnings for partial passport data that was dropped rather
// than sent incomplete.
func toPassengerInputs(passengers []travel.Passenger, logger *slog.Logger) ([]passengerInput, []string, error) {
	out := make([]passengerInput, 0, len(passengers))
	var warnings []string

	for _, p := range passengers {
		name := p.DisplayName()

		gender := normalizeGender(p.Gender)

		if p.Phone == "" {
			return nil, warnings, &travel.ValidationError{Field: "phone", Passenger: name, Message: "is required"}
		}
		if p.DateOfBirth == "" {
			return nil, warnings, &travel.ValidationError{Field: "dateOfBirth", Passenger: name, Message: "is required"}
		}
		if p.Email == "" {
			return nil, warnings, &travel.ValidationError{Field: "email", Passenger: name, Message: "is required"}
		}

		phone, err := travel.NormalizePhone(p.Phone)
		if err != nil {
			if ve, ok := err.(*travel.ValidationError); ok {
				ve.Passenger = name
				return nil, warnings, ve
			}
			return nil, warnings, err
		}

		// The passenger type must be declared by the caller; inferring
		// it from age risks silently mischarging or misbooking.
		if p.Type == "" {
			return nil, warnings, &travel.ValidationError{Field: "type", Passenger: name, Message: "passenger type (adult/child/infant) is required"}
		}
		pType, ok := passengerTypeToDuffel(p.Type)
		if !ok {
			return nil, warnings, &travel.ValidationError{Field: "type", Passenger: name, Message: fmt.Sprintf("unknown passenger type %q", p.Type)}
		}

		input := passengerInput{
			ID:          p.ID,
			Type:        pType,
			Title:       p.Title,
			Gender:      gender,
			GivenName:   p.GivenName,
			FamilyName:  p.FamilyName,
			BornOn:      p.DateOfBirth,
			Email:       p.Email,
			PhoneNumber: phone,
		}

		if doc, warning := toIdentityDocument(p, name); doc != nil {
			input.IdentityDocuments = []identityDocumentInput{*doc}
		} else if warning != "" {
			warnings = append(warnings, warning)
			logger.Warn("dropping partial passport data", "passenger", name)
		}

		out = append(out, input)
	}
	return out, warnings, nil
}

// normalizeGender maps the canonical gender token to the provider enum,
// defaulting deterministically when absent or invalid.
func normalizeGender(g travel.Gender) string {
	switch g {
	case travel.GenderMale:
		return "m"
	case travel.GenderFemale:
		return "f"
	default:
		return defaultGender
	}
}

// passengerTypeToDuffel maps the canonical passenger type vocabulary.
func passengerTypeToDuffel(t travel.PassengerType) (string, bool) {
	switch t {
	case travel.PassengerAdult:
		return "adult", true
	case travel.PassengerChild:
		return "child", true
	case travel.PassengerInfant:
		return "infant_without_seat", true
	default:
		return "", false
	}
}

// toIdentityDocument builds a passport document only when number, expiry,
// and issuing country are all present. Upstream rejects incomplete
// documents, so partial data is dropped with a warning instead.
func toIdentityDocument(p travel.Passenger, name string) (*identityDocumentInput, string) {
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
	return &identityDocumentInput{
		Type:               "passport",
		UniqueIdentifier:   passport.Number,
		ExpiresOn:          passport.ExpiresOn,
		IssuingCountryCode: country,
	}, ""
}
