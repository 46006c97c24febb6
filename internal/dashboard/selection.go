package dashboard

import (
	"fmt"
	"strings"

	"github.com/aristath/riskboard/internal/domain"
	"github.com/aristath/riskboard/internal/marketdata"
)

// DefaultTickers is the Dow basket new sessions look at
var DefaultTickers = []string{
	"AAPL", "MSFT", "JPM", "BA", "V", "KO", "MCD", "IBM", "HD", "DIS",
	"GS", "UNH", "CAT", "NKE", "PG", "CRM", "MRK", "WMT", "AMGN", "CSCO",
}

// Default benchmark and window
const (
	DefaultBenchmark = "SPY"
	DefaultStart     = "2023-01-01"
	DefaultEnd       = "2025-04-01"
)

// Selection is what a session looks at. Dates are YYYY-MM-DD.
type Selection struct {
	Tickers   []string `json:"tickers"`
	Benchmark string   `json:"benchmark"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
}

// DefaultSelection returns the default basket and window
func DefaultSelection() Selection {
	return Selection{
		Tickers:   append([]string(nil), DefaultTickers...),
		Benchmark: DefaultBenchmark,
		Start:     DefaultStart,
		End:       DefaultEnd,
	}
}

// Request validates the selection and converts it to a normalized load request
func (s Selection) Request() (marketdata.Request, error) {
	rng, err := domain.NewDateRange(s.Start, s.End)
	if err != nil {
		return marketdata.Request{}, fmt.Errorf("%w: %w", marketdata.ErrInvalidRequest, err)
	}
	return marketdata.Request{Tickers: s.Tickers, Benchmark: s.Benchmark, Range: rng}.Normalize()
}

// Merge fills the empty fields of s from base
func (s Selection) Merge(base Selection) Selection {
	if len(s.Tickers) == 0 {
		s.Tickers = append([]string(nil), base.Tickers...)
	}
	if s.Benchmark == "" {
		s.Benchmark = base.Benchmark
	}
	if s.Start == "" {
		s.Start = base.Start
	}
	if s.End == "" {
		s.End = base.End
	}
	return s
}

func selectionFromRequest(req marketdata.Request) Selection {
	return Selection{
		Tickers:   append([]string(nil), req.Tickers...),
		Benchmark: req.Benchmark,
		Start:     req.Range.Start.Format(domain.DateLayout),
		End:       req.Range.End.Format(domain.DateLayout),
	}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
