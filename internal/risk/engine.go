// Package risk derives portfolio risk statistics from aligned price tables:
// returns, equal-weight portfolio returns, volatility, historical value at
// risk, beta, rolling volatility, cumulative return and drawdown.
package risk

import (
	"fmt"
	"sort"

	"github.com/aristath/riskboard/internal/domain"
	"github.com/aristath/riskboard/pkg/formulas"
)

// Engine defaults
const (
	DefaultRollingWindow = 30
)

// DefaultConfidences are the VaR levels reported when none are configured
var DefaultConfidences = []float64{0.95, 0.99}

// Engine runs the risk chain with fixed annualization and window settings
type Engine struct {
	PeriodsPerYear int
	RollingWindow  int
	Confidences    []float64
}

// NewEngine returns an engine with the daily defaults
func NewEngine() *Engine {
	return &Engine{
		PeriodsPerYear: formulas.TradingDaysPerYear,
		RollingWindow:  DefaultRollingWindow,
		Confidences:    append([]float64(nil), DefaultConfidences...),
	}
}

// Validate checks the engine settings
func (e *Engine) Validate() error {
	if e.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods per year must be positive, got %d", e.PeriodsPerYear)
	}
	if e.RollingWindow < 2 {
		return fmt.Errorf("rolling window must be at least 2, got %d", e.RollingWindow)
	}
	if len(e.Confidences) == 0 {
		return fmt.Errorf("%w: no confidence levels configured", ErrInvalidConfidence)
	}
	for _, c := range e.Confidences {
		if !(c > 0 && c < 1) {
			return fmt.Errorf("%w: %v is outside (0, 1)", ErrInvalidConfidence, c)
		}
	}
	return nil
}

// VaRFigure is the value at risk and expected shortfall at one confidence level
type VaRFigure struct {
	Confidence        float64 `json:"confidence"`
	VaR               float64 `json:"var"`
	ExpectedShortfall float64 `json:"expected_shortfall"`
}

// Metrics are the scalar results of a report. Beta is nil when it could not
// be computed, which is distinct from a beta of zero.
type Metrics struct {
	Volatility       float64     `json:"volatility"`
	VaR              []VaRFigure `json:"var"`
	Beta             *float64    `json:"beta"`
	CumulativeReturn float64     `json:"cumulative_return"`
	MaxDrawdown      float64     `json:"max_drawdown"`
	Observations     int         `json:"observations"`
}

// VaRAt returns the figure for one confidence level
func (m Metrics) VaRAt(confidence float64) (VaRFigure, bool) {
	for _, f := range m.VaR {
		if f.Confidence == confidence {
			return f, true
		}
	}
	return VaRFigure{}, false
}

// Warning records a metric that degraded to nil instead of failing the report
type Warning struct {
	Metric string `json:"metric"`
	Reason string `json:"reason"`
}

// Report is the full output of Analyze
type Report struct {
	Tickers   []string           `json:"tickers"`
	Benchmark string             `json:"benchmark"`
	Weights   map[string]float64 `json:"weights"`
	Metrics   Metrics            `json:"metrics"`
	Warnings  []Warning          `json:"warnings"`

	PortfolioReturns  domain.Series `json:"-"`
	BenchmarkReturns  domain.Series `json:"-"`
	Cumulative        domain.Series `json:"-"`
	RollingVolatility domain.Series `json:"-"`
	Drawdown          domain.Series `json:"-"`
}

// Series returns a derived series by name
func (r *Report) Series(name string) (domain.Series, bool) {
	switch name {
	case SeriesPortfolioReturns:
		return r.PortfolioReturns, true
	case SeriesBenchmarkReturns:
		return r.BenchmarkReturns, true
	case SeriesCumulative:
		return r.Cumulative, true
	case SeriesRollingVolatility:
		return r.RollingVolatility, true
	case SeriesDrawdown:
		return r.Drawdown, true
	}
	return domain.Series{}, false
}

// SeriesNames lists the names accepted by Report.Series
func SeriesNames() []string {
	return []string{
		SeriesBenchmarkReturns,
		SeriesCumulative,
		SeriesDrawdown,
		SeriesPortfolioReturns,
		SeriesRollingVolatility,
	}
}

// Analyze runs the chain over an equal-weight portfolio of tickers.
// Failures of returns, volatility and VaR abort with a typed error. Beta and
// rolling volatility degrade to nil/empty with a Warning.
func (e *Engine) Analyze(table *domain.PriceTable, tickers []string, benchmark string) (*Report, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers to analyze", ErrInsufficientData)
	}

	returns, err := TableReturns(table, tickers)
	if err != nil {
		return nil, fmt.Errorf("failed to compute returns: %w", err)
	}

	weights := EqualWeights(tickers)
	ordered := make([]domain.Series, len(tickers))
	weightMap := make(map[string]float64, len(tickers))
	for i, sym := range tickers {
		ordered[i] = returns[sym]
		weightMap[sym] = weights[i]
	}

	portfolio, err := PortfolioReturns(ordered, weights)
	if err != nil {
		return nil, fmt.Errorf("failed to compute portfolio returns: %w", err)
	}

	vol, err := Volatility(portfolio, e.PeriodsPerYear)
	if err != nil {
		return nil, fmt.Errorf("failed to compute volatility: %w", err)
	}

	confidences := append([]float64(nil), e.Confidences...)
	sort.Float64s(confidences)
	figures := make([]VaRFigure, 0, len(confidences))
	for _, c := range confidences {
		v, err := ValueAtRisk(portfolio, c, e.PeriodsPerYear)
		if err != nil {
			return nil, fmt.Errorf("failed to compute VaR at %v: %w", c, err)
		}
		es, err := ExpectedShortfall(portfolio, c, e.PeriodsPerYear)
		if err != nil {
			return nil, fmt.Errorf("failed to compute expected shortfall at %v: %w", c, err)
		}
		figures = append(figures, VaRFigure{Confidence: c, VaR: v, ExpectedShortfall: es})
	}

	report := &Report{
		Tickers:          append([]string(nil), tickers...),
		Benchmark:        benchmark,
		Weights:          weightMap,
		PortfolioReturns: portfolio,
		Cumulative:       CumulativeReturns(portfolio),
		Drawdown:         Drawdown(portfolio),
		Warnings:         []Warning{},
	}
	report.Metrics = Metrics{
		Volatility:   vol,
		VaR:          figures,
		Observations: portfolio.Len(),
	}
	if n := report.Cumulative.Len(); n > 0 {
		report.Metrics.CumulativeReturn = report.Cumulative.Points[n-1].Value
	}
	report.Metrics.MaxDrawdown = MaxDrawdown(portfolio)

	report.BenchmarkReturns, report.Metrics.Beta = e.beta(report, table, benchmark)

	rolling, err := RollingVolatility(portfolio, e.RollingWindow, e.PeriodsPerYear)
	if err != nil {
		report.warn(SeriesRollingVolatility, err)
		rolling = domain.Series{Name: SeriesRollingVolatility, Unit: domain.UnitAnnualizedRatio, Points: []domain.Point{}}
	}
	report.RollingVolatility = rolling

	return report, nil
}

func (e *Engine) beta(report *Report, table *domain.PriceTable, benchmark string) (domain.Series, *float64) {
	empty := domain.Series{Name: SeriesBenchmarkReturns, Unit: domain.UnitRatio, Points: []domain.Point{}}

	prices, err := table.Series(benchmark)
	if err != nil {
		report.warn("beta", err)
		return empty, nil
	}
	benchReturns, err := Returns(prices)
	if err != nil {
		report.warn("beta", err)
		return empty, nil
	}
	benchReturns.Name = SeriesBenchmarkReturns

	b, err := Beta(report.PortfolioReturns, benchReturns)
	if err != nil {
		report.warn("beta", err)
		return benchReturns, nil
	}
	return benchReturns, &b
}

func (r *Report) warn(metric string, err error) {
	r.Warnings = append(r.Warnings, Warning{Metric: metric, Reason: err.Error()})
}
