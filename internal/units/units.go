package units

import (
	"fmt"
	"strings"
)

// THERM exports coordinates in millimeters.
const millimetersPerMeter = 1000.0

// metersPerUnit maps lower-cased unit names to their length in meters
var metersPerUnit = map[string]float64{
	"mm":          0.001,
	"millimeter":  0.001,
	"millimeters": 0.001,
	"cm":          0.01,
	"centimeter":  0.01,
	"centimeters": 0.01,
	"m":           1,
	"meter":       1,
	"meters":      1,
	"km":          1000,
	"kilometer":   1000,
	"kilometers":  1000,
	"in":          0.0254,
	"inch":        0.0254,
	"inches":      0.0254,
	"ft":          0.3048,
	"foot":        0.3048,
	"feet":        0.3048,
	"yd":          0.9144,
	"yard":        0.9144,
	"yards":       0.9144,
}

// Factor returns the length of one unit of the named system in meters.
// Names are matched case-insensitively, so Rhino header tokens such as
// "Millimeters" resolve as well.
func Factor(name string) (float64, error) {
	f, ok := metersPerUnit[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown unit system %q", name)
	}
	return f, nil
}

// ConversionFactor returns the scale that takes THERM millimeters into a
// scene whose unit is hostFactor meters long.
func ConversionFactor(hostFactor float64) float64 {
	return 1 / (hostFactor * millimetersPerMeter)
}
