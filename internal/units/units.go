// Package units converts temperatures between display units. The engine and
// the database always work in °C; conversion happens only at the API edge.
package units

import "fmt"

// Supported display units.
const (
	Celsius    = "celsius"
	Fahrenheit = "fahrenheit"
	Kelvin     = "kelvin"
)

// Convert converts a temperature in °C to the target display unit. Unknown
// units fall through to °C.
func Convert(celsius float64, unit string) float64 {
	switch unit {
	case Fahrenheit, "f":
		return celsius*9/5 + 32
	case Kelvin, "k":
		return celsius + 273.15
	default:
		return celsius
	}
}

// Symbol returns the display suffix for a unit.
func Symbol(unit string) string {
	switch unit {
	case Fahrenheit, "f":
		return "°F"
	case Kelvin, "k":
		return "K"
	default:
		return "°C"
	}
}

// Validate rejects unit names that Convert would silently coerce to °C.
func Validate(unit string) error {
	switch unit {
	case Celsius, Fahrenheit, Kelvin, "c", "f", "k":
		return nil
	}
	return fmt.Errorf("unknown temperature unit %q", unit)
}
