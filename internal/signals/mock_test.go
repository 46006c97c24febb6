package signals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandFor(t *testing.T) {
	tests := []struct {
		value int
		want  Band
	}{
		{0, BandGreen},
		{32, BandGreen},
		{33, BandYellow},
		{65, BandYellow},
		{66, BandRed},
		{100, BandRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(tt.value), "value %d", tt.value)
	}
}

func TestNewGauge_Clamps(t *testing.T) {
	assert.Equal(t, 0, NewGauge("x", -5).Value)
	g := NewGauge("x", 150)
	assert.Equal(t, 100, g.Value)
	assert.Equal(t, BandRed, g.Band)
}

func TestMockProvider_CategoriesWithinRanges(t *testing.T) {
	var p RiskSignalProvider = NewMockProvider(42)

	ranges := map[string][2]float64{
		"credit":        {90, 130},
		"operational":   {2, 10},
		"cybersecurity": {1, 10},
		"compliance":    {0, 5},
		"liquidity":     {1.5, 3.0},
		"tech":          {0, 10},
		"emerging":      {70, 95},
	}

	for i := 0; i < 200; i++ {
		cats, err := p.Categories(context.Background())
		require.NoError(t, err)
		require.Len(t, cats, 8)

		for _, c := range cats {
			if c.Key == "geopolitical" {
				assert.Nil(t, c.Value)
				assert.Equal(t, "Exposures: USA, China, UK, Germany", c.Text)
				continue
			}
			r, ok := ranges[c.Key]
			require.True(t, ok, c.Key)
			require.NotNil(t, c.Value)
			assert.GreaterOrEqual(t, *c.Value, r[0], c.Key)
			assert.LessOrEqual(t, *c.Value, r[1], c.Key)
			assert.NotEmpty(t, c.Text)
		}
	}
}

func TestMockProvider_AppetiteWithinBounds(t *testing.T) {
	p := NewMockProvider(7)

	for i := 0; i < 200; i++ {
		gauges, err := p.Appetite(context.Background())
		require.NoError(t, err)
		require.Len(t, gauges, 3)
		assert.Equal(t, GaugeVaRLimit, gauges[0].Name)
		assert.Equal(t, GaugeLiquidityRatio, gauges[1].Name)
		assert.Equal(t, GaugeCounterpartyExposure, gauges[2].Name)
		for _, g := range gauges {
			assert.GreaterOrEqual(t, g.Value, 0)
			assert.LessOrEqual(t, g.Value, 100)
			assert.Equal(t, BandFor(g.Value), g.Band)
		}
	}
}

func TestMockProvider_SeedIsDeterministic(t *testing.T) {
	a, err := NewMockProvider(99).Categories(context.Background())
	require.NoError(t, err)
	b, err := NewMockProvider(99).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMockProvider_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewMockProvider(1)
	_, err := p.Categories(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = p.Appetite(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
