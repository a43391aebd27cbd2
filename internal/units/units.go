// Package units provides shared constants and conversion for room dimension units
package units

import "strings"

// Unit constants
const (
	Meters      = "m"
	Centimeters = "cm"
	Feet        = "ft"
	Inches      = "in"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meters, Centimeters, Feet, Inches}

var metersPer = map[string]float64{
	Meters:      1,
	Centimeters: 0.01,
	Feet:        0.3048,
	Inches:      0.0254,
}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	_, ok := metersPer[unit]
	return ok
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ToMeters converts a length in the given unit to meters.
// Unknown units are treated as meters.
func ToMeters(v float64, unit string) float64 {
	if f, ok := metersPer[unit]; ok {
		return v * f
	}
	return v
}

// FromMeters converts a length in meters to the target unit.
// Unknown units are treated as meters.
func FromMeters(v float64, unit string) float64 {
	if f, ok := metersPer[unit]; ok {
		return v / f
	}
	return v
}
