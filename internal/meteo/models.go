package meteo

import (
	"fmt"
	"time"
)

// Level identifies an atmospheric level tracked by the forecast.
// The surface level means 2 m for temperature/humidity and 10 m for wind.
type Level int

const (
	LevelSurface Level = iota
	Level850 // ~1500 m
	Level800 // ~2000 m
	Level750 // ~2500 m
)

// PressureLevels are the levels thermal velocity is estimated for.
var PressureLevels = []Level{Level850, Level800, Level750}

// AllLevels lists every level, surface first.
var AllLevels = []Level{LevelSurface, Level850, Level800, Level750}

func (l Level) String() string {
	switch l {
	case LevelSurface:
		return "surface"
	case Level850:
		return "850hPa"
	case Level800:
		return "800hPa"
	case Level750:
		return "750hPa"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Field is one of the tracked meteorological quantities.
type Field int

const (
	FieldTemperature Field = iota
	FieldHumidity
	FieldWindSpeed
	FieldWindDirection
	FieldCloudCover // surface only
)

// VarKey identifies a single (field, level) hourly series. Using a closed
// enumeration instead of string keys makes a missing variable an explicit
// case rather than a silent map miss.
type VarKey struct {
	Field Field
	Level Level
}

// Name returns the wire-level hourly variable name for the key, as used by
// the Open-Meteo API.
func (k VarKey) Name() string {
	suffix := k.Level.String()
	switch k.Field {
	case FieldTemperature:
		if k.Level == LevelSurface {
			return "temperature_2m"
		}
		return "temperature_" + suffix
	case FieldHumidity:
		if k.Level == LevelSurface {
			return "relative_humidity_2m"
		}
		return "relative_humidity_" + suffix
	case FieldWindSpeed:
		if k.Level == LevelSurface {
			return "wind_speed_10m"
		}
		return "wind_speed_" + suffix
	case FieldWindDirection:
		if k.Level == LevelSurface {
			return "wind_direction_10m"
		}
		return "wind_direction_" + suffix
	case FieldCloudCover:
		return "cloud_cover"
	}
	return ""
}

// TrackedVars lists every variable the aggregator reads: wind speed and
// direction, temperature and humidity at each level, plus cloud cover.
func TrackedVars() []VarKey {
	vars := make([]VarKey, 0, 17)
	for _, lvl := range AllLevels {
		vars = append(vars,
			VarKey{FieldWindSpeed, lvl},
			VarKey{FieldWindDirection, lvl},
			VarKey{FieldTemperature, lvl},
			VarKey{FieldHumidity, lvl},
		)
	}
	return append(vars, VarKey{FieldCloudCover, LevelSurface})
}

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Key returns a canonical string key for indexing this coordinate in caches.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Valid reports whether the pair lies inside the latitude/longitude ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// NamedLocation pairs a short table label with its coordinate. An empty Name
// marks an ad-hoc location, rendered with the coordinate itself as label.
type NamedLocation struct {
	Name  string
	Coord Coordinate
}

// ModelSeries is one weather model's hourly output for one coordinate.
// Every value slice is index-aligned with Times; nil marks an absent sample.
type ModelSeries struct {
	Model  string
	Times  []time.Time
	Values map[VarKey][]*float64
}

// At returns the sample for key at index i, or nil when the model does not
// publish that variable or the sample is absent.
func (s ModelSeries) At(key VarKey, i int) *float64 {
	vals, ok := s.Values[key]
	if !ok || i < 0 || i >= len(vals) {
		return nil
	}
	return vals[i]
}

// indexAt returns the sample index matching target's calendar date and hour,
// or -1 when the series has no exact match. There is deliberately no
// positional fallback: guessing an index can land on the wrong calendar day.
func (s ModelSeries) indexAt(target time.Time) int {
	for i, ts := range s.Times {
		t := ts.In(target.Location())
		if t.Year() == target.Year() && t.Month() == target.Month() &&
			t.Day() == target.Day() && t.Hour() == target.Hour() {
			return i
		}
	}
	return -1
}

// Stat is a cross-model statistic for one variable. Mean is defined when
// N > 0. Std is the sample standard deviation and is defined only when
// N > 1; a single contributing model is an insufficient sample, which is a
// different state from a true zero dispersion.
type Stat struct {
	Mean float64
	Std  float64
	N    int
}

func (st Stat) HasMean() bool { return st.N > 0 }
func (st Stat) HasStd() bool  { return st.N > 1 }

// ThermalEstimate is a derived convective lift estimate for one pressure
// level. Velocity comes from the cross-model averaged inputs; Std is the
// dispersion of the per-model thermal velocities when at least two models
// produced one.
type ThermalEstimate struct {
	Velocity float64
	Std      float64
	HasStd   bool
}

// DayRecord holds the aggregated view of one location on one calendar day:
// per-variable cross-model statistics plus the derived dew points and
// thermal velocities. Missing entries mean no model contributed.
type DayRecord struct {
	Stats     map[VarKey]Stat
	DewPoints map[Level]*float64
	Thermals  map[Level]*ThermalEstimate
}
