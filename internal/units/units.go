// Package units provides shared constants and conversions for depth units
package units

import "strings"

// Depth unit constants
const (
	Meters      = "m"
	Millimeters = "mm"
)

// ValidDepthUnits contains all valid depth unit values
var ValidDepthUnits = []string{Meters, Millimeters}

// millimetersPerMeter is the scale of 16-bit depth images (1 count = 1 mm).
const millimetersPerMeter = 1000.0

// IsValid checks if the given unit is in the list of valid depth units
func IsValid(unit string) bool {
	for _, validUnit := range ValidDepthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidDepthUnits, ", ")
}

// MillimetersToMeters converts an integer depth in millimeters to meters.
func MillimetersToMeters(depthMM uint16) float64 {
	return float64(depthMM) / millimetersPerMeter
}

// MetersToMillimeters converts a depth in meters to whole millimeters, rounding
// to nearest and clamping to the uint16 range used by depth images.
func MetersToMillimeters(depthM float64) uint16 {
	mm := depthM*millimetersPerMeter + 0.5
	switch {
	case mm <= 0:
		return 0
	case mm >= 65535:
		return 65535
	default:
		return uint16(mm)
	}
}

// ToMeters converts a depth expressed in unit to meters. Unknown units are
// treated as meters.
func ToMeters(depth float64, unit string) float64 {
	if unit == Millimeters {
		return depth / millimetersPerMeter
	}
	return depth
}

// FromMeters converts a depth in meters to unit. Unknown units are treated as
// meters.
func FromMeters(depthM float64, unit string) float64 {
	if unit == Millimeters {
		return depthM * millimetersPerMeter
	}
	return depthM
}
