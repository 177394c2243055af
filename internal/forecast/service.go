// Package forecast drives the fetch -> aggregate -> render pipeline.
package forecast

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/airemonte/termica-bot/internal/meteo"
	"github.com/airemonte/termica-bot/internal/observability"
	"github.com/airemonte/termica-bot/internal/render"
	"github.com/airemonte/termica-bot/internal/store"
)

// DefaultHorizonDays is the forecast horizon sent for every request.
const DefaultHorizonDays = 4

// SeriesSource fetches every configured model's hourly series for a
// coordinate, tolerating partial failure.
type SeriesSource interface {
	FetchAll(ctx context.Context, coord meteo.Coordinate) []meteo.ModelSeries
}

// Service builds rendered forecast tables for sets of locations.
type Service struct {
	source  SeriesSource
	cache   *store.SeriesCache
	tz      *time.Location
	metrics *observability.Metrics
}

// NewService creates a Service. cache and metrics may be nil.
func NewService(source SeriesSource, cache *store.SeriesCache, tz *time.Location, metrics *observability.Metrics) *Service {
	return &Service{source: source, cache: cache, tz: tz, metrics: metrics}
}

// BuildForecasts produces one rendered table per day offset for the given
// locations, in declared order. It always returns exactly horizonDays
// tables; a location whose every model fetch failed still appears in each
// table as a placeholder row so multi-location alignment holds.
func (s *Service) BuildForecasts(ctx context.Context, locs []meteo.NamedLocation, horizonDays int) []string {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if s.metrics != nil {
		timer := prometheus.NewTimer(s.metrics.ForecastDuration)
		defer timer.ObserveDuration()
	}

	seriesByLoc := make([][]meteo.ModelSeries, len(locs))
	for i, loc := range locs {
		seriesByLoc[i] = s.seriesFor(ctx, loc.Coord)
		if len(seriesByLoc[i]) == 0 {
			log.Printf("ERROR: no usable model data for %s; rendering placeholders", loc.Coord.Key())
		}
	}

	now := meteo.Now().In(s.tz)
	tables := make([]string, 0, horizonDays)
	for day := 0; day < horizonDays; day++ {
		d := now.AddDate(0, 0, day)
		target := time.Date(d.Year(), d.Month(), d.Day(), meteo.TargetHour, 0, 0, 0, s.tz)

		rows := make([]render.Row, 0, len(locs))
		for i, loc := range locs {
			rec := meteo.Aggregate(seriesByLoc[i], target)
			rows = append(rows, locationRow(loc, rec))
		}
		tables = append(tables, render.Table(day, target, rows))
	}
	return tables
}

// seriesFor consults the cache before fetching. Empty fetch results are not
// cached so the next request gets another chance at the upstreams.
func (s *Service) seriesFor(ctx context.Context, coord meteo.Coordinate) []meteo.ModelSeries {
	if s.cache != nil {
		if series, ok := s.cache.Get(coord); ok {
			s.countCache("hit")
			return series
		}
		s.countCache("miss")
	}

	series := s.source.FetchAll(ctx, coord)
	if s.cache != nil && len(series) > 0 {
		s.cache.Put(coord, series)
	}
	return series
}

func (s *Service) countCache(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func locationRow(loc meteo.NamedLocation, rec meteo.DayRecord) render.Row {
	if loc.Name != "" {
		return render.Row{Top: loc.Name, Bottom: loc.Name, Record: rec}
	}
	top, bottom := render.CoordLabels(loc.Coord)
	return render.Row{Top: top, Bottom: bottom, Record: rec}
}
