package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"elevator-access-backend/internal/model"
)

var (
	// apt-<floor digit><rest of unit>, e.g. apt-201 is floor 2 unit 201.
	apartmentIDRe = regexp.MustCompile(`^apt-(\d)(\d+)$`)
	unitNumberRe  = regexp.MustCompile(`^[0-9A-Za-z-]{1,32}$`)
)

// ParsedApartment holds the floor and unit number derived from an apartment
// identifier.
type ParsedApartment struct {
	Floor      int
	UnitNumber string
}

// ApartmentID builds the identifier cards are keyed by.
func ApartmentID(unitNumber string) string {
	return model.ApartmentIDPrefix + strings.TrimSpace(unitNumber)
}

// UnitNumberFromApartmentID strips the identifier prefix.
func UnitNumberFromApartmentID(apartmentID string) (string, error) {
	unit, ok := strings.CutPrefix(strings.TrimSpace(apartmentID), model.ApartmentIDPrefix)
	if !ok || !unitNumberRe.MatchString(unit) {
		return "", fmt.Errorf("invalid apartment id: %q", apartmentID)
	}
	return unit, nil
}

// ParseApartmentID extracts floor and unit number from identifiers of the
// form apt-XYY. The floor is the first digit of the unit number; it is not
// checked against the apartments table.
func ParseApartmentID(raw string) (ParsedApartment, error) {
	s := strings.TrimSpace(raw)
	m := apartmentIDRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedApartment{}, fmt.Errorf("apartment id must look like apt-201, got %q", raw)
	}

	floor, err := strconv.Atoi(m[1])
	if err != nil || floor < 1 {
		return ParsedApartment{}, fmt.Errorf("unable to parse floor from apartment id: %q", raw)
	}
	return ParsedApartment{Floor: floor, UnitNumber: m[1] + m[2]}, nil
}

// ValidUnitNumber reports whether s can be used as a unit number.
func ValidUnitNumber(s string) bool {
	return unitNumberRe.MatchString(s)
}
