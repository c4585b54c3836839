package util

import (
	"fmt"
	"math"
)

// FormatPower renders a MW figure with an adaptive unit.
func FormatPower(mw float64) string {
	abs := math.Abs(mw)
	switch {
	case abs >= 1e3:
		return fmt.Sprintf("%.3f GW", mw/1e3)
	case abs >= 1:
		return fmt.Sprintf("%.3f MW", mw)
	case abs > 0:
		return fmt.Sprintf("%.3f kW", mw*1e3)
	default:
		return "0.000 MW"
	}
}

// FormatPerUnit renders a per-unit magnitude.
func FormatPerUnit(v float64) string {
	return fmt.Sprintf("%.4f pu", v)
}

// FormatAngle renders radians in degrees.
func FormatAngle(rad float64) string {
	return fmt.Sprintf("%6.2f deg", rad*180.0/math.Pi)
}

// FormatLoading renders a flow/rating ratio as a percentage. An undefined
// rating yields a dash.
func FormatLoading(flow, rate float64) string {
	if rate == 0 {
		return "   -  "
	}
	return fmt.Sprintf("%5.1f%%", 100.0*math.Abs(flow)/rate)
}

// FormatPolar renders a complex magnitude/phase pair.
func FormatPolar(name string, magnitude, phaseRad float64) string {
	var magStr string
	if magnitude >= 1000 || (magnitude < 0.001 && magnitude != 0) {
		magStr = fmt.Sprintf("%8.2e", magnitude)
	} else {
		magStr = fmt.Sprintf("%8.3g", magnitude)
	}
	return fmt.Sprintf("%s=%s<%6.1fdeg", name, magStr, phaseRad*180.0/math.Pi)
}
