package signals

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// GeopoliticalExposures are the regions listed on the geopolitical card
var GeopoliticalExposures = []string{"USA", "China", "UK", "Germany"}

// Appetite gauge names
const (
	GaugeVaRLimit             = "VaR Limit"
	GaugeLiquidityRatio       = "Liquidity Ratio"
	GaugeCounterpartyExposure = "Counterparty Exposure"
)

// MockProvider draws placeholder readings from its own random source
type MockProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockProvider seeds the provider. A zero seed uses the current time.
func NewMockProvider(seed int64) *MockProvider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewMockProviderWithRand(rand.New(rand.NewSource(seed)))
}

// NewMockProviderWithRand uses an injected random source
func NewMockProviderWithRand(rng *rand.Rand) *MockProvider {
	return &MockProvider{rng: rng}
}

// Categories implements RiskSignalProvider
func (p *MockProvider) Categories(ctx context.Context) ([]Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return []Category{
		numeric("credit", "Credit Risk", "CDS Spread", "bps",
			float64(p.intn(90, 130)), "CDS Spread: %.0f bps"),
		numeric("operational", "Operational Risk", "Incidents Last Quarter", "incidents",
			float64(p.intn(2, 10)), "Incidents Last Quarter: %.0f"),
		numeric("cybersecurity", "Cybersecurity Risk", "Threat Score", "score",
			float64(p.intn(1, 10)), "Threat Score: %.0f / 10"),
		numeric("compliance", "Compliance Risk", "Open Issues", "issues",
			float64(p.intn(0, 5)), "Open Issues: %.0f"),
		numeric("liquidity", "Liquidity Risk", "Liquidity Ratio", "ratio",
			p.uniform(1.5, 3.0, 2), "Liquidity Ratio: %.2f"),
		numeric("tech", "Tech Risk", "System Downtime", "hrs",
			p.uniform(0, 10, 1), "System Downtime: %.1f hrs"),
		numeric("emerging", "Emerging Risk", "ESG Score", "score",
			p.uniform(70, 95, 1), "ESG Score: %.1f"),
		{
			Key:    "geopolitical",
			Name:   "Geopolitical Risk",
			Metric: "Exposures",
			Unit:   "regions",
			Text:   "Exposures: " + strings.Join(GeopoliticalExposures, ", "),
		},
	}, nil
}

// Appetite implements RiskSignalProvider
func (p *MockProvider) Appetite(ctx context.Context) ([]Gauge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return []Gauge{
		NewGauge(GaugeVaRLimit, p.intn(GaugeMin, GaugeMax)),
		NewGauge(GaugeLiquidityRatio, p.intn(GaugeMin, GaugeMax)),
		NewGauge(GaugeCounterpartyExposure, p.intn(GaugeMin, GaugeMax)),
	}, nil
}

// intn draws an integer in [lo, hi]
func (p *MockProvider) intn(lo, hi int) int {
	return lo + p.rng.Intn(hi-lo+1)
}

// uniform draws from [lo, hi] rounded to the given decimals
func (p *MockProvider) uniform(lo, hi float64, decimals int) float64 {
	v := lo + p.rng.Float64()*(hi-lo)
	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	return float64(int64(v*scale+0.5)) / scale
}
