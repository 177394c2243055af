package meteo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompassDirection(t *testing.T) {
	t.Run("sector boundaries belong to the starting sector", func(t *testing.T) {
		assert.Equal(t, "N", CompassDirection(0))
		assert.Equal(t, "NNE", CompassDirection(11.25))
		assert.Equal(t, "N", CompassDirection(348.75))
		assert.Equal(t, "NNO", CompassDirection(326.25))
		assert.Equal(t, "S", CompassDirection(180))
		assert.Equal(t, "O", CompassDirection(270))
	})

	t.Run("just under a boundary stays in the previous sector", func(t *testing.T) {
		assert.Equal(t, "N", CompassDirection(11.24))
		assert.Equal(t, "NNO", CompassDirection(348.74))
	})

	t.Run("out of range input is normalized", func(t *testing.T) {
		assert.Equal(t, CompassDirection(90), CompassDirection(450))
		assert.Equal(t, CompassDirection(350), CompassDirection(-10))
		assert.Equal(t, "N", CompassDirection(720))
	})

	t.Run("total over a fine sweep", func(t *testing.T) {
		valid := make(map[string]bool, 16)
		for _, l := range compassLabels {
			valid[l] = true
		}
		for deg := -720.0; deg <= 720.0; deg += 0.25 {
			label := CompassDirection(deg)
			require.True(t, valid[label], "degrees %v produced %q", deg, label)
		}
	})
}

func TestDewPoint(t *testing.T) {
	t.Run("saturated air dew point equals temperature", func(t *testing.T) {
		assert.Equal(t, 20.0, DewPoint(20, 100))
	})

	t.Run("non-positive humidity never produces a domain error", func(t *testing.T) {
		for _, h := range []float64{0, -1, -100} {
			dp := DewPoint(20, h)
			require.False(t, math.IsNaN(dp), "humidity %v gave NaN", h)
			require.False(t, math.IsInf(dp, 0), "humidity %v gave Inf", h)
			assert.Less(t, dp, 20.0)
		}
	})

	t.Run("drier air lowers the dew point", func(t *testing.T) {
		assert.Less(t, DewPoint(20, 50), DewPoint(20, 80))
	})
}

func TestThermalVelocity(t *testing.T) {
	t.Run("known value", func(t *testing.T) {
		v, ok := ThermalVelocity(10, 0, 5)
		require.True(t, ok)
		assert.InDelta(t, 5.5708, v, 0.001)
	})

	t.Run("saturated level is undefined, not zero", func(t *testing.T) {
		_, ok := ThermalVelocity(10, 5, 5)
		assert.False(t, ok)
	})

	t.Run("zero dew point spread gives zero lift", func(t *testing.T) {
		v, ok := ThermalVelocity(0, 0, 10)
		require.True(t, ok)
		assert.Equal(t, 0.0, v)
	})

	t.Run("defined results are never NaN", func(t *testing.T) {
		for ds := -30.0; ds <= 30; ds += 3 {
			for dl := -30.0; dl <= 30; dl += 3 {
				for tl := -30.0; tl <= 30; tl += 3 {
					if v, ok := ThermalVelocity(ds, dl, tl); ok {
						require.False(t, math.IsNaN(v))
						require.GreaterOrEqual(t, v, 0.0)
					}
				}
			}
		}
	})
}
