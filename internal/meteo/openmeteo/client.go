package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/airemonte/termica-bot/internal/meteo"
	"github.com/airemonte/termica-bot/internal/observability"
)

// Model describes one numerical model queried through the Open-Meteo API.
// Levels lists the pressure levels the model actually publishes; surface
// variables are requested for every model.
type Model struct {
	Name   string
	Levels []meteo.Level
}

// DefaultModels returns the model set the bot queries. Level availability
// differs per model: ECMWF publishes only 850 hPa and ICON lacks 750 hPa.
func DefaultModels() []Model {
	all := []meteo.Level{meteo.Level850, meteo.Level800, meteo.Level750}
	return []Model{
		{Name: "icon_seamless", Levels: []meteo.Level{meteo.Level850, meteo.Level800}},
		{Name: "gfs_seamless", Levels: all},
		{Name: "meteofrance_seamless", Levels: all},
		{Name: "ecmwf_ifs", Levels: []meteo.Level{meteo.Level850}},
		{Name: "ukmo_seamless", Levels: all},
		{Name: "gem_seamless", Levels: all},
		{Name: "cma_grapes_global", Levels: all},
	}
}

// vars returns the hourly variables to request for the model.
func (m Model) vars() []meteo.VarKey {
	keys := []meteo.VarKey{
		{Field: meteo.FieldTemperature, Level: meteo.LevelSurface},
		{Field: meteo.FieldHumidity, Level: meteo.LevelSurface},
		{Field: meteo.FieldCloudCover, Level: meteo.LevelSurface},
		{Field: meteo.FieldWindSpeed, Level: meteo.LevelSurface},
		{Field: meteo.FieldWindDirection, Level: meteo.LevelSurface},
	}
	for _, lvl := range m.Levels {
		keys = append(keys,
			meteo.VarKey{Field: meteo.FieldTemperature, Level: lvl},
			meteo.VarKey{Field: meteo.FieldHumidity, Level: lvl},
			meteo.VarKey{Field: meteo.FieldWindSpeed, Level: lvl},
			meteo.VarKey{Field: meteo.FieldWindDirection, Level: lvl},
		)
	}
	return keys
}

// timeLayout is the ISO-8601-like local timestamp format Open-Meteo returns.
const timeLayout = "2006-01-02T15:04"

// Client fetches hourly series from the Open-Meteo forecast API, one request
// per configured model, each behind its own circuit breaker.
type Client struct {
	baseURL  string
	client   *http.Client
	models   []Model
	tz       *time.Location
	backoff  backoffConfig
	breakers map[string]*gobreaker.CircuitBreaker
	metrics  *observability.Metrics
}

// NewClient creates a Client for the given models. metrics may be nil.
func NewClient(client *http.Client, models []Model, tz *time.Location, metrics *observability.Metrics) *Client {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(models))
	for _, m := range models {
		breakers[m.Name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        m.Name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
	}
	return &Client{
		baseURL:  "https://api.open-meteo.com/v1/forecast",
		client:   client,
		models:   models,
		tz:       tz,
		backoff:  defaultBackoff(),
		breakers: breakers,
		metrics:  metrics,
	}
}

// FetchAll queries every configured model concurrently and returns the
// subset that succeeded, sorted by model name. Failures are logged and
// excluded; the caller decides whether an empty result matters.
func (c *Client) FetchAll(ctx context.Context, coord meteo.Coordinate) []meteo.ModelSeries {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out []meteo.ModelSeries
	)

	for _, m := range c.models {
		m := m
		wg.Add(1)
		go func() {
			defer wg.Done()

			series, err := c.FetchModel(ctx, m, coord)
			if err != nil {
				log.Printf("ERROR: model %s fetch failed for %s: %v", m.Name, coord.Key(), err)
				c.count(m.Name, "error")
				return
			}
			c.count(m.Name, "success")

			mu.Lock()
			out = append(out, series)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// FetchModel requests one model's hourly series for coord.
func (c *Client) FetchModel(ctx context.Context, model Model, coord meteo.Coordinate) (meteo.ModelSeries, error) {
	buildRequest := func() (*http.Request, error) {
		names := make([]string, 0, len(model.vars()))
		for _, key := range model.vars() {
			names = append(names, key.Name())
		}

		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coord.Lat))
		values.Set("longitude", fmt.Sprintf("%f", coord.Lon))
		values.Set("hourly", strings.Join(names, ","))
		values.Set("models", model.Name)
		values.Set("timezone", c.tz.String())
		values.Set("forecast_days", "7")
		values.Set("format", "json")

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	}

	resp, err := doWithResilience(ctx, c.client, c.backoff, c.breakers[model.Name], buildRequest)
	if err != nil {
		return meteo.ModelSeries{}, err
	}
	defer resp.Body.Close()

	return c.decodeSeries(model, resp.Body)
}

// decodeSeries parses the hourly block into a ModelSeries. Variables the
// model omits are simply absent; a variable whose array length disagrees
// with the timestamp array breaks the series invariant and fails the model.
func (c *Client) decodeSeries(model Model, body io.Reader) (meteo.ModelSeries, error) {
	var payload struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return meteo.ModelSeries{}, fmt.Errorf("decode %s response: %w", model.Name, err)
	}

	rawTimes, ok := payload.Hourly["time"]
	if !ok {
		return meteo.ModelSeries{}, fmt.Errorf("%s response has no hourly time axis", model.Name)
	}
	var stamps []string
	if err := json.Unmarshal(rawTimes, &stamps); err != nil {
		return meteo.ModelSeries{}, fmt.Errorf("decode %s time axis: %w", model.Name, err)
	}

	times := make([]time.Time, len(stamps))
	for i, stamp := range stamps {
		t, err := time.ParseInLocation(timeLayout, stamp, c.tz)
		if err != nil {
			return meteo.ModelSeries{}, fmt.Errorf("parse %s timestamp %q: %w", model.Name, stamp, err)
		}
		times[i] = t
	}

	series := meteo.ModelSeries{
		Model:  model.Name,
		Times:  times,
		Values: make(map[meteo.VarKey][]*float64),
	}
	for _, key := range model.vars() {
		raw, ok := payload.Hourly[key.Name()]
		if !ok {
			continue
		}
		var vals []*float64
		if err := json.Unmarshal(raw, &vals); err != nil {
			return meteo.ModelSeries{}, fmt.Errorf("decode %s %s: %w", model.Name, key.Name(), err)
		}
		if len(vals) != len(times) {
			return meteo.ModelSeries{}, fmt.Errorf("%s %s: %d values for %d timestamps",
				model.Name, key.Name(), len(vals), len(times))
		}
		series.Values[key] = vals
	}
	return series, nil
}

func (c *Client) count(model, outcome string) {
	if c.metrics != nil {
		c.metrics.ModelFetches.WithLabelValues(model, outcome).Inc()
	}
}
