package geo

import (
	"errors"
	"testing"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airemonte/termica-bot/internal/meteo"
)

func testClient(size int, lookup func(geocoder.Address) (geocoder.Location, error)) *Client {
	c := NewClient("", size)
	c.lookup = lookup
	return c
}

func TestLookupResolvesAndCaches(t *testing.T) {
	calls := 0
	c := testClient(4, func(addr geocoder.Address) (geocoder.Location, error) {
		calls++
		assert.Equal(t, "Merlo", addr.City)
		return geocoder.Location{Latitude: -32.34, Longitude: -64.98}, nil
	})

	for i := 0; i < 3; i++ {
		coord, err := c.Lookup("Merlo")
		require.NoError(t, err)
		assert.Equal(t, meteo.Coordinate{Lat: -32.34, Lon: -64.98}, coord)
	}
	assert.Equal(t, 1, calls, "repeat lookups should be served from cache")
}

func TestLookupCacheKeyIgnoresCaseAndSpace(t *testing.T) {
	calls := 0
	c := testClient(4, func(geocoder.Address) (geocoder.Location, error) {
		calls++
		return geocoder.Location{Latitude: -31.32, Longitude: -64.34}, nil
	})

	_, err := c.Lookup("San Jorge")
	require.NoError(t, err)
	_, err = c.Lookup("  san jorge ")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestLookupEmptyName(t *testing.T) {
	c := testClient(4, func(geocoder.Address) (geocoder.Location, error) {
		t.Fatal("lookup should not be called")
		return geocoder.Location{}, nil
	})

	_, err := c.Lookup("   ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestLookupErrorNotCached(t *testing.T) {
	calls := 0
	c := testClient(4, func(geocoder.Address) (geocoder.Location, error) {
		calls++
		if calls == 1 {
			return geocoder.Location{}, errors.New("quota exceeded")
		}
		return geocoder.Location{Latitude: -30.99, Longitude: -64.71}, nil
	})

	_, err := c.Lookup("Cuchi Corral")
	require.Error(t, err)

	coord, err := c.Lookup("Cuchi Corral")
	require.NoError(t, err)
	assert.Equal(t, -30.99, coord.Lat)
	assert.Equal(t, 2, calls)
}

func TestLookupRejectsOutOfRangeResult(t *testing.T) {
	c := testClient(4, func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{Latitude: 120, Longitude: 0}, nil
	})

	_, err := c.Lookup("nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	calls := map[string]int{}
	c := testClient(2, func(addr geocoder.Address) (geocoder.Location, error) {
		calls[addr.City]++
		return geocoder.Location{Latitude: -31, Longitude: -64}, nil
	})

	_, _ = c.Lookup("a")
	_, _ = c.Lookup("b")
	_, _ = c.Lookup("a") // refresh a; b is now the eviction candidate
	_, _ = c.Lookup("c") // evicts b
	_, _ = c.Lookup("a")
	_, _ = c.Lookup("b")

	assert.Equal(t, 1, calls["a"])
	assert.Equal(t, 2, calls["b"])
	assert.Equal(t, 1, calls["c"])
}
