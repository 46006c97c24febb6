// Package formulas holds the closed-form statistics used by the risk engine.
// Functions operate on plain float64 slices and never return NaN; undefined
// results are reported as nil pointers or zero-length slices.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the default annualization factor for daily data
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 denominator).
// Returns 0 for fewer than two observations.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance (n-1 denominator).
// Returns 0 for fewer than two observations.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two equally sized datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// AnnualizationFactor returns sqrt(periodsPerYear), the scaling applied to
// per-period dispersion and percentile figures.
func AnnualizationFactor(periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		periodsPerYear = TradingDaysPerYear
	}
	return math.Sqrt(float64(periodsPerYear))
}

// CalculateReturns converts prices to simple returns
// Returns[i] = Price[i+1]/Price[i] - 1, one entry shorter than prices.
// A zero prior price yields a zero return.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = prices[i]/prices[i-1] - 1
		}
	}

	return returns
}

// WeightedSum combines several equally long series into one:
// out[t] = sum_k weights[k] * series[k][t].
// Series shorter than the first one are treated as missing trailing values.
func WeightedSum(series [][]float64, weights []float64) []float64 {
	if len(series) == 0 || len(series) != len(weights) {
		return []float64{}
	}

	out := make([]float64, len(series[0]))
	for k, s := range series {
		w := weights[k]
		for t := range out {
			if t < len(s) {
				out[t] += w * s[t]
			}
		}
	}
	return out
}

// AnnualizedVolatility calculates sample stdev of per-period returns scaled by
// sqrt(periodsPerYear). Nil for fewer than two observations.
func AnnualizedVolatility(returns []float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	vol := StdDev(returns) * AnnualizationFactor(periodsPerYear)
	return &vol
}

// Beta calculates cov(asset, benchmark) / var(benchmark).
// Nil when the series differ in length, have fewer than two points, or the
// benchmark variance is zero.
func Beta(asset, benchmark []float64) *float64 {
	if len(asset) < 2 || len(asset) != len(benchmark) {
		return nil
	}

	variance := Variance(benchmark)
	if variance == 0 {
		return nil
	}

	beta := Covariance(asset, benchmark) / variance
	return &beta
}
