package formulas

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCumulativeAndDrawdown_Example(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})

	growth := CumulativeGrowth(returns)
	require.Len(t, growth, 2)
	assert.InDelta(t, 1.10, growth[0], 1e-12)
	assert.InDelta(t, 0.99, growth[1], 1e-12)

	cum := CumulativeReturns(returns)
	assert.InDelta(t, 0.10, cum[0], 1e-12)
	assert.InDelta(t, -0.01, cum[1], 1e-12)

	dd := Drawdowns(returns)
	require.Len(t, dd, 2)
	assert.Equal(t, 0.0, dd[0])
	assert.InDelta(t, -0.10, dd[1], 1e-12)
}

func TestDrawdowns_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	returns := make([]float64, 500)
	for i := range returns {
		returns[i] = rng.NormFloat64() * 0.02
	}

	growth := CumulativeGrowth(returns)
	dd := Drawdowns(returns)
	require.Len(t, dd, len(returns))

	peak := 0.0
	for i, c := range growth {
		assert.LessOrEqual(t, dd[i], 0.0, "index %d", i)
		if i == 0 || c >= peak {
			peak = c
			assert.Equal(t, 0.0, dd[i], "new peak at %d", i)
		}
	}
}

func TestDrawdowns_Empty(t *testing.T) {
	assert.Empty(t, Drawdowns(nil))
	assert.Empty(t, CumulativeGrowth(nil))
}

func TestCalculateMaxDrawdown(t *testing.T) {
	mdd := CalculateMaxDrawdown([]float64{1.0, 1.2, 0.9, 1.1, 0.6, 1.3})
	require.NotNil(t, mdd)
	assert.InDelta(t, 0.5, *mdd, 1e-12)

	assert.Nil(t, CalculateMaxDrawdown([]float64{1.0}))
}
