package bot

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/airemonte/termica-bot/internal/meteo"
	"github.com/airemonte/termica-bot/internal/observability"
)

// retryLaterText is the user-visible reply when a handler faults.
const retryLaterText = "Error procesando su solicitud. Inténtelo más tarde."

// spotCommand prefixes a place-name lookup request.
const spotCommand = "/spot "

// API is the transport surface the loop needs.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ForecastBuilder produces rendered tables for a set of locations.
type ForecastBuilder interface {
	BuildForecasts(ctx context.Context, locs []meteo.NamedLocation, horizonDays int) []string
}

// Geocoder resolves a free-text place name to a coordinate.
type Geocoder interface {
	Lookup(name string) (meteo.Coordinate, error)
}

// Config holds the update loop settings.
type Config struct {
	DefaultLocations []meteo.NamedLocation
	HorizonDays      int
	PollTimeout      time.Duration
	SendDelay        time.Duration // minimum spacing between sends to one chat
	MaxPollFailures  int           // consecutive transport failures before Run gives up
}

// Loop drives the long-poll cycle. Messages are handled one at a time, to
// completion, before the next update is considered. The update cursor is
// owned here and nowhere else.
type Loop struct {
	api       API
	forecasts ForecastBuilder
	geocoder  Geocoder // nil when no geocoding key is configured
	cfg       Config
	metrics   *observability.Metrics
	clock     clockwork.Clock

	offset int64 // highest update id observed
}

// NewLoop creates a Loop. geocoder and metrics may be nil.
func NewLoop(api API, forecasts ForecastBuilder, geocoder Geocoder, cfg Config, metrics *observability.Metrics) *Loop {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 4
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.SendDelay <= 0 {
		cfg.SendDelay = time.Second
	}
	if cfg.MaxPollFailures <= 0 {
		cfg.MaxPollFailures = 10
	}
	return &Loop{
		api:       api,
		forecasts: forecasts,
		geocoder:  geocoder,
		cfg:       cfg,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
	}
}

// SetClock swaps the loop's time source; tests use it to skip send delays.
func (l *Loop) SetClock(c clockwork.Clock) {
	if c != nil {
		l.clock = c
	}
}

// coordPattern matches a "<lat>,<lon>" pair: optional sign, optional
// decimals, optional whitespace after the comma.
var coordPattern = regexp.MustCompile(`(-?\d+\.?\d*),\s*(-?\d+\.?\d*)`)

// ParseCoordinates scans free text for a coordinate pair inside valid
// latitude/longitude ranges.
func ParseCoordinates(text string) (meteo.Coordinate, bool) {
	m := coordPattern.FindStringSubmatch(text)
	if m == nil {
		return meteo.Coordinate{}, false
	}
	lat, latErr := strconv.ParseFloat(m[1], 64)
	lon, lonErr := strconv.ParseFloat(m[2], 64)
	if latErr != nil || lonErr != nil {
		return meteo.Coordinate{}, false
	}
	c := meteo.Coordinate{Lat: lat, Lon: lon}
	return c, c.Valid()
}

// Run polls for updates until ctx is cancelled or the transport fails
// MaxPollFailures times in a row, in which case the last error is returned
// so the caller can treat it as a liveness fault. Handler faults never
// terminate the loop.
func (l *Loop) Run(ctx context.Context) error {
	failures := 0
	backoff := time.Second

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := l.api.GetUpdates(ctx, l.offset+1, l.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			log.Printf("ERROR: getUpdates failed (%d consecutive): %v", failures, err)
			if failures >= l.cfg.MaxPollFailures {
				return fmt.Errorf("update polling failed %d times in a row: %w", failures, err)
			}
			l.clock.Sleep(backoff)
			if backoff *= 2; backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
			continue
		}
		failures = 0
		backoff = time.Second

		for _, u := range updates {
			// Advance past the update before handling it so a faulting
			// handler can never wedge the loop on the same update.
			l.offset = u.UpdateID
			if u.Message == nil {
				continue
			}
			l.handle(ctx, *u.Message)
		}
	}
}

// handle processes one message to completion. Panics are contained here:
// logged with a request id, answered with a retry-later reply, and the loop
// carries on.
func (l *Loop) handle(ctx context.Context, msg Message) {
	reqID := uuid.NewString()
	if l.metrics != nil {
		l.metrics.UpdatesProcessed.Inc()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: [%s] message handler fault: %v", reqID, r)
			if l.metrics != nil {
				l.metrics.HandlerFaults.Inc()
			}
			if err := l.api.SendMessage(ctx, msg.Chat.ID, retryLaterText); err != nil {
				log.Printf("ERROR: [%s] error reply failed: %v", reqID, err)
			}
		}
	}()

	locs := l.resolveLocations(reqID, msg.Text)
	tables := l.forecasts.BuildForecasts(ctx, locs, l.cfg.HorizonDays)

	for _, table := range tables {
		if err := l.api.SendMessage(ctx, msg.Chat.ID, "<pre>"+table+"</pre>"); err != nil {
			log.Printf("ERROR: [%s] send failed: %v", reqID, err)
			l.countSend("error")
		} else {
			l.countSend("success")
		}
		// Fixed spacing after every send, including the last, so sends for
		// the next message to the same chat keep their distance too; the
		// transport enforces an anti-flood policy.
		l.clock.Sleep(l.cfg.SendDelay)
	}
}

// resolveLocations maps message text to the locations to forecast: an inline
// coordinate pair, a geocoded /spot lookup, or the configured defaults.
func (l *Loop) resolveLocations(reqID, text string) []meteo.NamedLocation {
	text = strings.TrimSpace(text)

	if coord, ok := ParseCoordinates(text); ok {
		log.Printf("INFO: [%s] custom coordinates %s", reqID, coord.Key())
		return []meteo.NamedLocation{{Coord: coord}}
	}

	if l.geocoder != nil && strings.HasPrefix(text, spotCommand) {
		name := strings.TrimSpace(strings.TrimPrefix(text, spotCommand))
		coord, err := l.geocoder.Lookup(name)
		if err == nil {
			log.Printf("INFO: [%s] geocoded %q to %s", reqID, name, coord.Key())
			return []meteo.NamedLocation{{Coord: coord}}
		}
		log.Printf("ERROR: [%s] geocoding %q failed, using defaults: %v", reqID, name, err)
	}

	return l.cfg.DefaultLocations
}

func (l *Loop) countSend(outcome string) {
	if l.metrics != nil {
		l.metrics.MessagesSent.WithLabelValues(outcome).Inc()
	}
}
