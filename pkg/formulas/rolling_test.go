package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingStdDev(t *testing.T) {
	data := []float64{1, 2, 3, 4, 6}

	got := RollingStdDev(data, 3)

	require.Len(t, got, 3)
	assert.InDelta(t, StdDev([]float64{1, 2, 3}), got[0], 1e-12)
	assert.InDelta(t, StdDev([]float64{2, 3, 4}), got[1], 1e-12)
	assert.InDelta(t, StdDev([]float64{3, 4, 6}), got[2], 1e-12)
}

func TestRollingStdDev_ShortInput(t *testing.T) {
	assert.Empty(t, RollingStdDev([]float64{1, 2}, 3))
	assert.Empty(t, RollingStdDev([]float64{1, 2, 3}, 1))
}

func TestRollingVolatility_Annualizes(t *testing.T) {
	data := []float64{0.01, -0.01, 0.02, -0.02}

	raw := RollingStdDev(data, 2)
	annual := RollingVolatility(data, 2, 252)

	require.Len(t, annual, len(raw))
	for i := range raw {
		assert.InDelta(t, raw[i]*math.Sqrt(252), annual[i], 1e-12)
	}
}
