package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airemonte/termica-bot/internal/meteo"
)

func fullRecord() meteo.DayRecord {
	stat := func(mean float64) meteo.Stat { return meteo.Stat{Mean: mean, N: 3} }
	return meteo.DayRecord{
		Stats: map[meteo.VarKey]meteo.Stat{
			{Field: meteo.FieldWindSpeed, Level: meteo.LevelSurface}:     stat(12.4),
			{Field: meteo.FieldWindSpeed, Level: meteo.Level850}:         stat(25.6),
			{Field: meteo.FieldWindSpeed, Level: meteo.Level800}:         stat(8),
			{Field: meteo.FieldWindSpeed, Level: meteo.Level750}:         stat(103),
			{Field: meteo.FieldCloudCover, Level: meteo.LevelSurface}:    stat(45),
			{Field: meteo.FieldWindDirection, Level: meteo.LevelSurface}: stat(0),
			{Field: meteo.FieldWindDirection, Level: meteo.Level850}:     stat(90),
			{Field: meteo.FieldWindDirection, Level: meteo.Level800}:     stat(225),
			{Field: meteo.FieldWindDirection, Level: meteo.Level750}:     stat(310),
		},
		DewPoints: map[meteo.Level]*float64{},
		Thermals: map[meteo.Level]*meteo.ThermalEstimate{
			meteo.Level850: {Velocity: 1.26, Std: 0.31, HasStd: true},
			meteo.Level800: {Velocity: 2.0},
		},
	}
}

func emptyRecord() meteo.DayRecord {
	return meteo.DayRecord{
		Stats:     map[meteo.VarKey]meteo.Stat{},
		DewPoints: map[meteo.Level]*float64{},
		Thermals:  map[meteo.Level]*meteo.ThermalEstimate{},
	}
}

// 2026-08-31 is a Monday.
var tableDate = time.Date(2026, 8, 31, meteo.TargetHour, 0, 0, 0, time.UTC)

func TestTableHeader(t *testing.T) {
	cases := []struct {
		offset int
		want   string
	}{
		{0, "Prono: hoy lunes 31 Ago 15hs"},
		{1, "Prono: mañ lunes 31 Ago 15hs"},
		{2, "Prono: pas+1 lunes 31 Ago 15hs"},
		{3, "Prono: pas+2 lunes 31 Ago 15hs"},
	}
	for _, tc := range cases {
		lines := strings.Split(Table(tc.offset, tableDate, nil), "\n")
		assert.Equal(t, tc.want, lines[0])
		assert.Equal(t, "*****|viento km/h      |nb|térmica m/s", lines[1])
		assert.Equal(t, "*****| ↓ |1,5k|2k |2,5k|% |1,5k|2k  |2,5k|", lines[2])
	}
}

func TestTableRows(t *testing.T) {
	t.Run("named location with full data", func(t *testing.T) {
		out := Table(0, tableDate, []Row{{Top: "S.Jor", Bottom: "S.Jor", Record: fullRecord()}})
		lines := strings.Split(out, "\n")
		assert.Equal(t, "S.Jor|12 | 26 | 8 |103 |45| 1.3| 2.0| 0.0|", lines[4])
		assert.Equal(t, "S.Jor|  N|   E| SO|  NO|% |±0.3|±0.1|±0.1|", lines[5])
	})

	t.Run("ad-hoc coordinate with no data renders placeholders", func(t *testing.T) {
		top, bottom := CoordLabels(meteo.Coordinate{Lat: -31.32, Lon: -64.34})
		out := Table(0, tableDate, []Row{{Top: top, Bottom: bottom, Record: emptyRecord()}})
		lines := strings.Split(out, "\n")
		assert.Equal(t, "-31.3| 0 |  0 | 0 |  0 | 0| 0.0| 0.0| 0.0|", lines[4])
		assert.Equal(t, "-64.3|  ?|   ?|  ?|   ?|% |±0.1|±0.1|±0.1|", lines[5])
	})

	t.Run("row widths never vary with data presence", func(t *testing.T) {
		out := Table(0, tableDate, []Row{
			{Top: "S.Jor", Bottom: "S.Jor", Record: fullRecord()},
			{Top: "Cuchi", Bottom: "Cuchi", Record: emptyRecord()},
		})
		lines := strings.Split(out, "\n")
		require.GreaterOrEqual(t, len(lines), 8)

		fullTop, emptyTop := []rune(lines[4]), []rune(lines[6])
		fullBottom, emptyBottom := []rune(lines[5]), []rune(lines[7])
		assert.Equal(t, len(fullTop), len(emptyTop))
		assert.Equal(t, len(fullBottom), len(emptyBottom))
	})

	t.Run("locations keep declared order", func(t *testing.T) {
		out := Table(0, tableDate, []Row{
			{Top: "Zocal", Bottom: "Zocal", Record: emptyRecord()},
			{Top: "Andes", Bottom: "Andes", Record: emptyRecord()},
		})
		assert.Less(t, strings.Index(out, "Zocal"), strings.Index(out, "Andes"))
	})

	t.Run("long labels are clipped to the label column", func(t *testing.T) {
		out := Table(0, tableDate, []Row{{Top: "Piedemonte", Bottom: "Piedemonte", Record: emptyRecord()}})
		lines := strings.Split(out, "\n")
		assert.True(t, strings.HasPrefix(lines[4], "Piede|"))
	})
}
