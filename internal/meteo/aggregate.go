package meteo

import (
	"math"
	"time"
)

// TargetHour is the fixed local hour at which daily conditions are compared.
const TargetHour = 15

// Aggregate reduces a set of per-model series to a single record for the
// calendar day and hour of target. A series contributes only when it has a
// sample exactly at target's local date and hour; a series without an exact
// match is skipped for that day rather than approximated.
func Aggregate(series []ModelSeries, target time.Time) DayRecord {
	rec := DayRecord{
		Stats:     make(map[VarKey]Stat),
		DewPoints: make(map[Level]*float64),
		Thermals:  make(map[Level]*ThermalEstimate),
	}

	indices := make([]int, len(series))
	collected := make(map[VarKey][]float64)
	for i, s := range series {
		indices[i] = s.indexAt(target)
		if indices[i] < 0 {
			continue
		}
		for _, key := range TrackedVars() {
			if v := s.At(key, indices[i]); v != nil {
				collected[key] = append(collected[key], *v)
			}
		}
	}

	for _, key := range TrackedVars() {
		rec.Stats[key] = newStat(collected[key])
	}

	// Dew points from the averaged temperature/humidity pair at each level.
	for _, lvl := range AllLevels {
		t := rec.Stats[VarKey{FieldTemperature, lvl}]
		h := rec.Stats[VarKey{FieldHumidity, lvl}]
		if t.HasMean() && h.HasMean() {
			dp := DewPoint(t.Mean, h.Mean)
			rec.DewPoints[lvl] = &dp
		}
	}

	// The 2m dew point is the fixed reference for every thermal velocity;
	// without it no level gets an estimate.
	surface := rec.DewPoints[LevelSurface]
	if surface == nil {
		return rec
	}

	for _, lvl := range PressureLevels {
		dp := rec.DewPoints[lvl]
		t := rec.Stats[VarKey{FieldTemperature, lvl}]
		if dp == nil || !t.HasMean() {
			continue
		}
		v, ok := ThermalVelocity(*surface, *dp, t.Mean)
		if !ok {
			continue
		}
		est := &ThermalEstimate{Velocity: v}
		if st := newStat(perModelThermals(series, indices, lvl)); st.HasStd() {
			est.Std = st.Std
			est.HasStd = true
		}
		rec.Thermals[lvl] = est
	}

	return rec
}

// perModelThermals computes each model's own thermal velocity at lvl, used
// for the dispersion estimate. A model contributes only when it has the full
// input set at the matched index.
func perModelThermals(series []ModelSeries, indices []int, lvl Level) []float64 {
	var out []float64
	for i, s := range series {
		idx := indices[i]
		if idx < 0 {
			continue
		}
		t2 := s.At(VarKey{FieldTemperature, LevelSurface}, idx)
		h2 := s.At(VarKey{FieldHumidity, LevelSurface}, idx)
		tl := s.At(VarKey{FieldTemperature, lvl}, idx)
		hl := s.At(VarKey{FieldHumidity, lvl}, idx)
		if t2 == nil || h2 == nil || tl == nil || hl == nil {
			continue
		}
		dewSfc := DewPoint(*t2, *h2)
		dewLvl := DewPoint(*tl, *hl)
		if v, ok := ThermalVelocity(dewSfc, dewLvl, *tl); ok {
			out = append(out, v)
		}
	}
	return out
}

// newStat computes mean and sample standard deviation over values.
// N carries the contributing count so callers can tell an insufficient
// sample (N == 1) from a true zero dispersion.
func newStat(values []float64) Stat {
	st := Stat{N: len(values)}
	if st.N == 0 {
		return st
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	st.Mean = sum / float64(st.N)
	if st.N < 2 {
		return st
	}
	var ss float64
	for _, v := range values {
		d := v - st.Mean
		ss += d * d
	}
	st.Std = math.Sqrt(ss / float64(st.N-1))
	return st
}
