package weather

import (
	"math"
	"strings"
)

// Unit is the display unit for temperatures. Forecasts always arrive in Celsius.
type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

// ParseUnit accepts the long and short spellings; anything else is Celsius.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "fahrenheit":
		return Fahrenheit
	default:
		return Celsius
	}
}

// ConvertTemperature converts a Celsius reading to u, rounded to the nearest
// integer with halves rounding up (-0.5 becomes 0, not -1).
func ConvertTemperature(celsius float64, u Unit) int {
	if u == Fahrenheit {
		return roundHalfUp(celsius*9/5 + 32)
	}
	return roundHalfUp(celsius)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
