// Package geo resolves free-text place names to coordinates for the /spot
// command, through the Google geocoding API.
package geo

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/airemonte/termica-bot/internal/meteo"
)

// ErrEmptyName is returned for a blank lookup request.
var ErrEmptyName = errors.New("empty place name")

// Client geocodes place names with a small in-memory LRU cache in front,
// since flying-site names repeat heavily across requests.
type Client struct {
	lookup func(geocoder.Address) (geocoder.Location, error)

	mu      sync.Mutex
	max     int
	entries map[string]meteo.Coordinate
	order   []string // least recently used first
}

// NewClient configures the geocoding API key and returns a Client.
func NewClient(apiKey string, cacheSize int) *Client {
	geocoder.ApiKey = apiKey
	if cacheSize <= 0 {
		cacheSize = 128
	}
	return &Client{
		lookup:  geocoder.Geocoding,
		max:     cacheSize,
		entries: make(map[string]meteo.Coordinate),
	}
}

// Lookup resolves a place name to a coordinate.
func (c *Client) Lookup(name string) (meteo.Coordinate, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return meteo.Coordinate{}, ErrEmptyName
	}

	if coord, ok := c.get(key); ok {
		return coord, nil
	}

	loc, err := c.lookup(geocoder.Address{City: strings.TrimSpace(name)})
	if err != nil {
		return meteo.Coordinate{}, fmt.Errorf("geocode %q: %w", name, err)
	}
	coord := meteo.Coordinate{Lat: loc.Latitude, Lon: loc.Longitude}
	if !coord.Valid() {
		return meteo.Coordinate{}, fmt.Errorf("geocode %q: result out of range", name)
	}

	c.put(key, coord)
	return coord, nil
}

func (c *Client) get(key string) (meteo.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	coord, ok := c.entries[key]
	if !ok {
		return meteo.Coordinate{}, false
	}
	c.touch(key)
	return coord, true
}

func (c *Client) put(key string, coord meteo.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	} else {
		c.touch(key)
	}
	c.entries[key] = coord

	for len(c.entries) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// touch moves key to the most recently used position. Callers hold the lock.
func (c *Client) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), key)
			return
		}
	}
}
