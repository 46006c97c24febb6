package risk

import (
	"fmt"

	"github.com/aristath/riskboard/internal/domain"
	"github.com/aristath/riskboard/pkg/formulas"
)

// Volatility is the sample standard deviation of returns times sqrt(periodsPerYear)
func Volatility(returns domain.Series, periodsPerYear int) (float64, error) {
	vol := formulas.AnnualizedVolatility(returns.Values(), periodsPerYear)
	if vol == nil {
		return 0, fmt.Errorf("%w: volatility needs 2 observations, have %d",
			ErrInsufficientData, returns.Len())
	}
	return *vol, nil
}

// ValueAtRisk is the (1-confidence) percentile of returns, linearly
// interpolated, times sqrt(periodsPerYear). Losses are negative.
func ValueAtRisk(returns domain.Series, confidence float64, periodsPerYear int) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("%w: %v is outside (0, 1)", ErrInvalidConfidence, confidence)
	}
	if returns.Len() == 0 {
		return 0, fmt.Errorf("%w: value at risk needs at least one return", ErrInsufficientData)
	}
	return *formulas.HistoricalVaR(returns.Values(), confidence, periodsPerYear), nil
}

// ExpectedShortfall is the mean of the worst (1-confidence) share of returns,
// scaled like ValueAtRisk so the two figures compare directly.
func ExpectedShortfall(returns domain.Series, confidence float64, periodsPerYear int) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("%w: %v is outside (0, 1)", ErrInvalidConfidence, confidence)
	}
	if returns.Len() == 0 {
		return 0, fmt.Errorf("%w: expected shortfall needs at least one return", ErrInsufficientData)
	}
	return formulas.CalculateCVaR(returns.Values(), confidence) *
		formulas.AnnualizationFactor(periodsPerYear), nil
}

// Beta is cov(portfolio, benchmark) / var(benchmark) over the dates both
// series share.
func Beta(portfolio, benchmark domain.Series) (float64, error) {
	p, b := alignOnDates(portfolio, benchmark)
	if len(p) < 2 {
		return 0, fmt.Errorf("%w: beta needs 2 aligned observations, have %d",
			ErrInsufficientData, len(p))
	}
	if formulas.Variance(b) == 0 {
		return 0, fmt.Errorf("%w: benchmark variance is zero", ErrDegenerateInput)
	}
	return *formulas.Beta(p, b), nil
}

// alignOnDates returns the values of a and b on their common dates, in a's order
func alignOnDates(a, b domain.Series) ([]float64, []float64) {
	bByDate := make(map[int64]float64, b.Len())
	for _, pt := range b.Points {
		bByDate[pt.Date.Unix()] = pt.Value
	}

	av := make([]float64, 0, a.Len())
	bv := make([]float64, 0, a.Len())
	for _, pt := range a.Points {
		if v, ok := bByDate[pt.Date.Unix()]; ok {
			av = append(av, pt.Value)
			bv = append(bv, v)
		}
	}
	return av, bv
}
