package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/riskboard/internal/domain"
	"github.com/aristath/riskboard/pkg/formulas"
)

// Series names used in reports and the API
const (
	SeriesPortfolioReturns  = "portfolio_returns"
	SeriesBenchmarkReturns  = "benchmark_returns"
	SeriesCumulative        = "cumulative"
	SeriesRollingVolatility = "rolling_volatility"
	SeriesDrawdown          = "drawdown"
)

// Returns converts a price series to simple returns r[t] = p[t]/p[t-1] - 1.
// The result is one entry shorter; the first date is dropped.
func Returns(prices domain.Series) (domain.Series, error) {
	if prices.Len() < 2 {
		return domain.Series{}, fmt.Errorf("%w: %s has %d price points, need 2",
			ErrInsufficientData, prices.Name, prices.Len())
	}

	values := prices.Values()
	for _, p := range values {
		if p <= 0 || math.IsInf(p, 0) || math.IsNaN(p) {
			return domain.Series{}, fmt.Errorf("%w: %s has non-positive or non-finite price %v",
				ErrDegenerateInput, prices.Name, p)
		}
	}

	return domain.NewSeries(prices.Name, domain.UnitRatio,
		prices.Dates()[1:], formulas.CalculateReturns(values)), nil
}

// TableReturns computes Returns for each symbol of an aligned price table
func TableReturns(table *domain.PriceTable, symbols []string) (map[string]domain.Series, error) {
	out := make(map[string]domain.Series, len(symbols))
	for _, sym := range symbols {
		prices, err := table.Series(sym)
		if err != nil {
			return nil, err
		}
		r, err := Returns(prices)
		if err != nil {
			return nil, err
		}
		out[sym] = r
	}
	return out, nil
}

// EqualWeights assigns 1/N to each symbol
func EqualWeights(symbols []string) []float64 {
	if len(symbols) == 0 {
		return []float64{}
	}
	w := 1 / float64(len(symbols))
	out := make([]float64, len(symbols))
	for i := range out {
		out[i] = w
	}
	return out
}

// PortfolioReturns sums weighted constituent returns per date. All
// constituents must share one date index, as they do when taken from one
// aligned table. Weights are trusted to be non-negative and sum to 1.
func PortfolioReturns(returns []domain.Series, weights []float64) (domain.Series, error) {
	if len(returns) == 0 || len(returns) != len(weights) {
		return domain.Series{}, fmt.Errorf("%w: %d return series for %d weights",
			ErrInsufficientData, len(returns), len(weights))
	}

	dates := returns[0].Dates()
	if len(dates) == 0 {
		return domain.Series{}, fmt.Errorf("%w: empty return series", ErrInsufficientData)
	}

	columns := make([][]float64, len(returns))
	for i, r := range returns {
		if !sameDates(dates, r.Dates()) {
			return domain.Series{}, fmt.Errorf("%w: %s is not aligned with %s",
				ErrDegenerateInput, r.Name, returns[0].Name)
		}
		columns[i] = r.Values()
	}

	return domain.NewSeries(SeriesPortfolioReturns, domain.UnitRatio,
		dates, formulas.WeightedSum(columns, weights)), nil
}

// RollingVolatility is the sample stdev of each trailing window, annualized.
// The first window-1 dates have no value and are absent from the result.
func RollingVolatility(returns domain.Series, window, periodsPerYear int) (domain.Series, error) {
	if window < 2 {
		return domain.Series{}, fmt.Errorf("%w: rolling window %d is below 2", ErrInsufficientData, window)
	}
	if returns.Len() < window {
		return domain.Series{}, fmt.Errorf("%w: %d observations for a %d-day window",
			ErrInsufficientData, returns.Len(), window)
	}

	values := formulas.RollingVolatility(returns.Values(), window, periodsPerYear)
	return domain.NewSeries(SeriesRollingVolatility, domain.UnitAnnualizedRatio,
		returns.Dates()[window-1:], values), nil
}

// CumulativeReturns compounds returns: C[t] - 1 with C[t] = prod(1 + r[i])
func CumulativeReturns(returns domain.Series) domain.Series {
	return domain.NewSeries(SeriesCumulative, domain.UnitRatio,
		returns.Dates(), formulas.CumulativeReturns(returns.Values()))
}

// Drawdown is C[t]/M[t] - 1 with M the running maximum of compounded growth.
// Every value is <= 0, and exactly 0 at a new peak.
func Drawdown(returns domain.Series) domain.Series {
	return domain.NewSeries(SeriesDrawdown, domain.UnitRatio,
		returns.Dates(), formulas.Drawdowns(returns.Values()))
}

// MaxDrawdown is the deepest drawdown as a non-positive ratio; 0 for fewer
// than two returns or a series that never falls below its peak.
func MaxDrawdown(returns domain.Series) float64 {
	mdd := formulas.CalculateMaxDrawdown(formulas.CumulativeGrowth(returns.Values()))
	if mdd == nil || *mdd <= 0 {
		return 0
	}
	return -*mdd
}

func sameDates(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
