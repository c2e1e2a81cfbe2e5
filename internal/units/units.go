// Package units provides shared constants and validation for speed units
// and the physical constants used by the race-time calculation.
package units

import "strings"

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Physical constants. Input masses are measured in grams.
const (
	GramsPerKilogram = 1000.0
	StandardGravity  = 9.81 // m/s²

	// MPSToKMPH converts metres per second to kilometres per hour.
	MPSToKMPH = 18.0 / 5
	// MPSToMPH converts metres per second to miles per hour.
	MPSToMPH = 2.2369362920544
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// Label returns the display label for a unit, e.g. "km/hr".
func Label(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/hr"
	default:
		return "m/s"
	}
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Unknown units fall back to m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * MPSToMPH
	case KMPH, KPH:
		return speedMPS * MPSToKMPH
	default:
		return speedMPS
	}
}

// ConvertToMPS converts a speed in the given units back to meters per second.
func ConvertToMPS(speed float64, fromUnits string) float64 {
	switch fromUnits {
	case MPH:
		return speed / MPSToMPH
	case KMPH, KPH:
		return speed / MPSToKMPH
	default:
		return speed
	}
}

// GramsToKilograms converts a mass in grams to kilograms.
func GramsToKilograms(grams float64) float64 {
	return grams / GramsPerKilogram
}

// Weight returns the gravitational force in Newtons on a mass given in grams.
func Weight(grams float64) float64 {
	return GramsToKilograms(grams) * StandardGravity
}
