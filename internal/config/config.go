package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/airemonte/termica-bot/internal/meteo"
)

// defaultLocations is the broadcast roster used when LOCATIONS is unset:
// flying sites in the Córdoba and San Luis sierras.
const defaultLocations = "S.Jor:-31.32,-64.34;Cuchi:-30.99,-64.71;V.Alp:-32.02,-64.81;Peder:-31.76,-64.65;N.Pau:-31.72,-65.00;Merlo:-32.34,-64.98"

var validate = validator.New()

type AppConfig struct {
	BotToken       string `validate:"required"`
	GeocoderAPIKey string

	// Timezone used for the 15:00 target hour and table headers.
	Timezone *time.Location

	// Default locations sent when a message carries no coordinates.
	Locations []meteo.NamedLocation `validate:"min=1"`

	HTTPTimeout time.Duration
	PollTimeout time.Duration
	SendDelay   time.Duration
	HorizonDays int `validate:"min=1,max=7"`

	// Series cache retention.
	CacheTTL        time.Duration
	CacheMaxEntries int

	// Daily broadcast; disabled unless both are set.
	BroadcastChatID int64
	BroadcastAt     string

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.BotToken = os.Getenv("BOT_TOKEN")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	tzName := getenvDefault("TIMEZONE", "America/Sao_Paulo")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = tz

	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cfg.PollTimeout, err = getenvDuration("POLL_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cfg.SendDelay, err = getenvDuration("SEND_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	cfg.HorizonDays = getenvInt("HORIZON_DAYS", 4)

	cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 32)

	cfg.BroadcastChatID, err = getenvInt64("BROADCAST_CHAT_ID", 0)
	if err != nil {
		return nil, err
	}
	cfg.BroadcastAt = os.Getenv("BROADCAST_AT")

	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := parseLocations(getenvDefault("LOCATIONS", defaultLocations))
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseLocations parses "Name:lat,lon;Name:lat,lon" entries.
func parseLocations(s string) ([]meteo.NamedLocation, error) {
	var locs []meteo.NamedLocation
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, coords, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid LOCATIONS entry %q: want Name:lat,lon", entry)
		}
		latStr, lonStr, ok := strings.Cut(coords, ",")
		if !ok {
			return nil, fmt.Errorf("invalid LOCATIONS entry %q: want Name:lat,lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in LOCATIONS entry %q", entry)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in LOCATIONS entry %q", entry)
		}
		coord := meteo.Coordinate{Lat: lat, Lon: lon}
		if !coord.Valid() {
			return nil, fmt.Errorf("out-of-range coordinate in LOCATIONS entry %q", entry)
		}
		locs = append(locs, meteo.NamedLocation{Name: strings.TrimSpace(name), Coord: coord})
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

// getenvInt64 parses 64-bit ids such as Telegram chat ids, which exceed
// int32 for supergroups.
func getenvInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
