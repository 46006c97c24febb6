package formulas

// CumulativeGrowth returns C[t] = prod_{i<=t}(1 + r[i])
func CumulativeGrowth(returns []float64) []float64 {
	out := make([]float64, len(returns))
	growth := 1.0
	for i, r := range returns {
		growth *= 1 + r
		out[i] = growth
	}
	return out
}

// CumulativeReturns returns C[t] - 1, the compounded return to date
func CumulativeReturns(returns []float64) []float64 {
	out := CumulativeGrowth(returns)
	for i := range out {
		out[i]--
	}
	return out
}

// Drawdowns returns C[t]/M[t] - 1 where M is the running maximum of the
// cumulative growth series. Every value is <= 0 and exactly 0 at a new peak.
func Drawdowns(returns []float64) []float64 {
	growth := CumulativeGrowth(returns)
	out := make([]float64, len(growth))

	peak := 0.0
	for i, c := range growth {
		if i == 0 || c >= peak {
			peak = c
			out[i] = 0
			continue
		}
		if peak > 0 {
			out[i] = c/peak - 1
		}
	}
	return out
}

// CalculateMaxDrawdown calculates the maximum drawdown from a value series
//
//	Drawdown = (Peak Value - Current Value) / Peak Value
//
// Returns the positive fraction (0.25 = 25% loss from peak) or nil for
// fewer than two values.
func CalculateMaxDrawdown(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	return &maxDrawdown
}
