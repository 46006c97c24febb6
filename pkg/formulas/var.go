package formulas

import (
	"math"
	"sort"
)

// Percentile returns the q-quantile (0 <= q <= 1) of data using linear
// interpolation between order statistics:
//
//	h = (n-1) * q
//	P = x[floor(h)] + (h - floor(h)) * (x[floor(h)+1] - x[floor(h)])
//
// This matches the default method of numpy.percentile and pandas.quantile.
// Nil for empty input or q outside [0, 1].
func Percentile(data []float64, q float64) *float64 {
	if len(data) == 0 || q < 0 || q > 1 || math.IsNaN(q) {
		return nil
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		v := sorted[len(sorted)-1]
		return &v
	}

	frac := h - float64(lo)
	v := sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
	return &v
}

// HistoricalVaR returns the (1-confidence) percentile of returns scaled by
// sqrt(periodsPerYear). Losses are negative. Nil for empty input or a
// confidence outside (0, 1).
func HistoricalVaR(returns []float64, confidence float64, periodsPerYear int) *float64 {
	if confidence <= 0 || confidence >= 1 {
		return nil
	}

	p := Percentile(returns, 1-confidence)
	if p == nil {
		return nil
	}

	v := *p * AnnualizationFactor(periodsPerYear)
	return &v
}

// CalculateCVaR calculates Conditional Value at Risk (expected shortfall):
// the mean of the worst ceil(n*(1-confidence)) returns, at least one.
// Returns 0 for empty input.
func CalculateCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	tailCount := int(math.Ceil(float64(len(sorted)) * (1 - confidence)))
	if tailCount < 1 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}

	sum := 0.0
	for _, r := range sorted[:tailCount] {
		sum += r
	}
	return sum / float64(tailCount)
}
