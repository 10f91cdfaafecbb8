package service

import (
	"regexp"
	"strings"

	"github.com/aliceryden/portalen/internal/models"
)

// postalPrefixRe extracts the first run of exactly three digits at a
// digit-run boundary, tolerating up to two trailing digits ("114 52",
// "11452" and "114" all yield "114").
var postalPrefixRe = regexp.MustCompile(`\b(\d{3})\d{0,2}\b`)

// AreaMatch is the outcome of matching a booking location against a
// farrier's configured service areas.
type AreaMatch struct {
	TravelFee float64
	// MatchedBy records what matched: "default", "city" or "postal_code".
	MatchedBy string
}

// MatchServiceArea decides whether a farrier serves the given city and
// address, and which travel fee applies. A farrier with no configured
// areas accepts everything at the default fee. An exact case-insensitive
// city match wins and short-circuits; otherwise the postal prefix from the
// address is tried; otherwise the request is rejected with the full list
// of configured areas.
func MatchServiceArea(areas []models.ServiceArea, city, address string, defaultFee float64) (*AreaMatch, error) {
	if len(areas) == 0 {
		return &AreaMatch{TravelFee: defaultFee, MatchedBy: "default"}, nil
	}

	wanted := strings.ToLower(strings.TrimSpace(city))
	for _, area := range areas {
		if strings.ToLower(strings.TrimSpace(area.City)) == wanted {
			fee := defaultFee
			if area.TravelFee > 0 {
				fee = area.TravelFee
			}
			return &AreaMatch{TravelFee: fee, MatchedBy: "city"}, nil
		}
	}

	if prefix := extractPostalPrefix(address); prefix != "" {
		for _, area := range areas {
			if area.PostalCodePrefix != "" && area.PostalCodePrefix == prefix {
				fee := defaultFee
				if area.TravelFee > 0 {
					fee = area.TravelFee
				}
				return &AreaMatch{TravelFee: fee, MatchedBy: "postal_code"}, nil
			}
		}
	}

	return nil, &AreaRejectedError{City: city, Areas: areas}
}

func extractPostalPrefix(address string) string {
	m := postalPrefixRe.FindStringSubmatch(address)
	if m == nil {
		return ""
	}
	return m[1]
}
