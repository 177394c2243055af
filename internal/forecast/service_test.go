package forecast

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airemonte/termica-bot/internal/meteo"
	"github.com/airemonte/termica-bot/internal/store"
)

// stubSource returns a fixed result and counts fetches.
type stubSource struct {
	series []meteo.ModelSeries
	calls  int
}

func (s *stubSource) FetchAll(ctx context.Context, coord meteo.Coordinate) []meteo.ModelSeries {
	s.calls++
	return s.series
}

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	meteo.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { meteo.SetClock(nil) })
}

// seriesAt builds a single-model series with one valid sample at target.
func seriesAt(target time.Time, key meteo.VarKey, value float64) []meteo.ModelSeries {
	return []meteo.ModelSeries{{
		Model:  "gfs_seamless",
		Times:  []time.Time{target},
		Values: map[meteo.VarKey][]*float64{key: {&value}},
	}}
}

var testLocs = []meteo.NamedLocation{
	{Name: "S.Jor", Coord: meteo.Coordinate{Lat: -31.32, Lon: -64.34}},
	{Name: "Cuchi", Coord: meteo.Coordinate{Lat: -30.99, Lon: -64.71}},
}

func TestBuildForecasts(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	t.Run("exactly horizonDays tables in day order", func(t *testing.T) {
		freezeClock(t, now)
		svc := NewService(&stubSource{}, nil, time.UTC, nil)

		tables := svc.BuildForecasts(context.Background(), testLocs, 4)
		require.Len(t, tables, 4)
		assert.Contains(t, tables[0], "Prono: hoy lunes 31 Ago 15hs")
		assert.Contains(t, tables[1], "Prono: mañ martes 1 Sep 15hs")
		assert.Contains(t, tables[2], "Prono: pas+1 miércoles 2 Sep 15hs")
		assert.Contains(t, tables[3], "Prono: pas+2 jueves 3 Sep 15hs")
	})

	t.Run("total fetch failure still renders every location", func(t *testing.T) {
		freezeClock(t, now)
		svc := NewService(&stubSource{}, nil, time.UTC, nil)

		tables := svc.BuildForecasts(context.Background(), testLocs, 4)
		require.Len(t, tables, 4)
		for _, table := range tables {
			assert.Contains(t, table, "S.Jor| 0 |")
			assert.Contains(t, table, "Cuchi| 0 |")
		}
	})

	t.Run("fetched values flow into the table", func(t *testing.T) {
		freezeClock(t, now)
		target := time.Date(2026, 8, 31, meteo.TargetHour, 0, 0, 0, time.UTC)
		src := &stubSource{series: seriesAt(target, meteo.VarKey{Field: meteo.FieldWindSpeed, Level: meteo.LevelSurface}, 17)}
		svc := NewService(src, nil, time.UTC, nil)

		tables := svc.BuildForecasts(context.Background(), testLocs[:1], 1)
		require.Len(t, tables, 1)
		assert.Contains(t, tables[0], "S.Jor|17 |")
	})

	t.Run("cache suppresses refetch inside the TTL", func(t *testing.T) {
		freezeClock(t, now)
		target := time.Date(2026, 8, 31, meteo.TargetHour, 0, 0, 0, time.UTC)
		src := &stubSource{series: seriesAt(target, meteo.VarKey{Field: meteo.FieldWindSpeed, Level: meteo.LevelSurface}, 17)}
		svc := NewService(src, store.NewSeriesCache(8, 10*time.Minute), time.UTC, nil)

		svc.BuildForecasts(context.Background(), testLocs[:1], 4)
		svc.BuildForecasts(context.Background(), testLocs[:1], 4)
		assert.Equal(t, 1, src.calls)
	})

	t.Run("empty fetch results are not cached", func(t *testing.T) {
		freezeClock(t, now)
		src := &stubSource{}
		svc := NewService(src, store.NewSeriesCache(8, 10*time.Minute), time.UTC, nil)

		svc.BuildForecasts(context.Background(), testLocs[:1], 1)
		svc.BuildForecasts(context.Background(), testLocs[:1], 1)
		assert.Equal(t, 2, src.calls)
	})

	t.Run("ad-hoc location is labelled by its coordinate", func(t *testing.T) {
		freezeClock(t, now)
		svc := NewService(&stubSource{}, nil, time.UTC, nil)

		adHoc := []meteo.NamedLocation{{Coord: meteo.Coordinate{Lat: -31.32, Lon: -64.34}}}
		tables := svc.BuildForecasts(context.Background(), adHoc, 1)
		require.Len(t, tables, 1)
		lines := strings.Split(tables[0], "\n")
		assert.True(t, strings.HasPrefix(lines[4], "-31.3|"))
		assert.True(t, strings.HasPrefix(lines[5], "-64.3|"))
	})
}
