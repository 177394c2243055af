package meteo

import "math"

// compassLabels are the 16 compass points, clockwise from north, using the
// Spanish convention the bot has always printed (O = oeste).
var compassLabels = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSO", "SO", "OSO", "O", "ONO", "NO", "NNO",
}

// CompassUnknown is the sentinel label for an absent wind direction.
const CompassUnknown = "?"

// CompassDirection maps wind direction degrees to a 16-point compass label.
// Sectors are 22.5 degrees wide and half-open [min,max), centered on each
// label, so N covers [348.75,360) and [0,11.25). Any real input is accepted;
// out-of-range degrees are normalized into [0,360) first.
func CompassDirection(degrees float64) string {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	idx := int((d+11.25)/22.5) % 16
	return compassLabels[idx]
}

// minHumidityPct is the floor applied before the dew point logarithm so the
// function stays defined for non-positive humidity readings.
const minHumidityPct = 0.1

// DewPoint estimates the dew point (deg C) from temperature (deg C) and
// relative humidity (%). At 100 % humidity the dew point equals the
// temperature exactly.
func DewPoint(tempC, humidityPct float64) float64 {
	if humidityPct < minHumidityPct {
		humidityPct = minHumidityPct
	}
	return tempC + 35*math.Log10(humidityPct/100)
}

// ThermalVelocity estimates convective lift (m/s) from the surface dew point
// against a pressure level's dew point and temperature:
//
//	v = 5.6 * sqrt((1.1^|dewSurface-dewLevel| - 1) / 1.1^|tempLevel-dewLevel|)
//
// ok is false when the level is saturated (tempLevel == dewLevel) or the
// radicand is not a valid ratio. An undefined result means "no lift
// estimate" and must be omitted by callers, never coerced to zero.
func ThermalVelocity(dewSurface, dewLevel, tempLevel float64) (float64, bool) {
	if tempLevel == dewLevel {
		return 0, false
	}
	num := math.Pow(1.1, math.Abs(dewSurface-dewLevel)) - 1
	den := math.Pow(1.1, math.Abs(tempLevel-dewLevel))
	if num < 0 || den == 0 {
		return 0, false
	}
	return 5.6 * math.Sqrt(num/den), true
}
