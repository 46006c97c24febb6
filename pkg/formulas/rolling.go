package formulas

// RollingStdDev returns the sample standard deviation of each trailing window.
// out[i] covers data[i : i+window], so out has len(data)-window+1 entries and
// corresponds to the input positions window-1 onward. Empty when window < 2
// or the data is shorter than one window.
func RollingStdDev(data []float64, window int) []float64 {
	if window < 2 || len(data) < window {
		return []float64{}
	}

	out := make([]float64, len(data)-window+1)
	for i := range out {
		out[i] = StdDev(data[i : i+window])
	}
	return out
}

// RollingVolatility annualizes RollingStdDev by sqrt(periodsPerYear)
func RollingVolatility(returns []float64, window, periodsPerYear int) []float64 {
	out := RollingStdDev(returns, window)
	factor := AnnualizationFactor(periodsPerYear)
	for i := range out {
		out[i] *= factor
	}
	return out
}
