package travel

import "strings"

// countryCodes maps lowercased free-text country names to ISO 3166-1 alpha-2
// codes. The table covers the markets the supported suppliers serve; callers
// holding a code already pass it through CountryCode unchanged.
var countryCodes = map[string]string{
	"afghanistan":          "AF",
	"argentina":            "AR",
	"australia":            "AU",
	"austria":              "AT",
	"bangladesh":           "BD",
	"belgium":              "BE",
	"brazil":               "BR",
	"canada":               "CA",
	"chile":                "CL",
	"china":                "CN",
	"colombia":             "CO",
	"croatia":              "HR",
	"czech republic":       "CZ",
	"czechia":              "CZ",
	"denmark":              "DK",
	"egypt":                "EG",
	"finland":              "FI",
	"france":               "FR",
	"germany":              "DE",
	"greece":               "GR",
	"hong kong":            "HK",
	"hungary":              "HU",
	"iceland":              "IS",
	"india":                "IN",
	"indonesia":            "ID",
	"ireland":              "IE",
	"israel":               "IL",
	"italy":                "IT",
	"japan":                "JP",
	"kenya":                "KE",
	"malaysia":             "MY",
	"mexico":               "MX",
	"morocco":              "MA",
	"netherlands":          "NL",
	"new zealand":          "NZ",
	"nigeria":              "NG",
	"norway":               "NO",
	"pakistan":             "PK",
	"peru":                 "PE",
	"philippines":          "PH",
	"poland":               "PL",
	"portugal":             "PT",
	"qatar":                "QA",
	"romania":              "RO",
	"saudi arabia":         "SA",
	"singapore":            "SG",
	"south africa":         "ZA",
	"south korea":          "KR",
	"spain":                "ES",
	"sweden":               "SE",
	"switzerland":          "CH",
	"taiwan":               "TW",
	"thailand":             "TH",
	"turkey":               "TR",
	"ukraine":              "UA",
	"united arab emirates": "AE",
	"united kingdom":       "GB",
	"great britain":        "GB",
	"uk":                   "GB",
	"united states":        "US",
	"united states of america": "US",
	"usa":     "US",
	"vietnam": "VN",
}

// CountryCode maps a free-text country name to its ISO 3166-1 alpha-2 code.
// Values that already look like a 2-letter code pass through uppercased.
// The second return value is false when the name is unknown.
func CountryCode(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 2 && isAlpha(trimmed) {
		return strings.ToUpper(trimmed), true
	}
	code, ok := countryCodes[strings.ToLower(trimmed)]
	return code, ok
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
