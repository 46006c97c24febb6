package marketdata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/riskboard/internal/domain"
)

// Request names the tickers, the benchmark and the range to load
type Request struct {
	Tickers   []string         `json:"tickers"`
	Benchmark string           `json:"benchmark"`
	Range     domain.DateRange `json:"range"`
}

// Normalize upper-cases, de-duplicates and sorts tickers and validates the request
func (r Request) Normalize() (Request, error) {
	seen := make(map[string]bool, len(r.Tickers))
	tickers := make([]string, 0, len(r.Tickers))
	for _, t := range r.Tickers {
		sym := normalizeSymbol(t)
		if sym == "" || seen[sym] {
			continue
		}
		if err := validateSymbol(sym); err != nil {
			return Request{}, err
		}
		seen[sym] = true
		tickers = append(tickers, sym)
	}
	if len(tickers) == 0 {
		return Request{}, fmt.Errorf("%w: at least one ticker is required", ErrInvalidRequest)
	}
	sort.Strings(tickers)

	bench := normalizeSymbol(r.Benchmark)
	if bench == "" {
		return Request{}, fmt.Errorf("%w: benchmark is required", ErrInvalidRequest)
	}
	if err := validateSymbol(bench); err != nil {
		return Request{}, err
	}

	rng := r.Range
	if !rng.Start.IsZero() && !rng.End.IsZero() {
		rng = domain.DateRange{Start: domain.Date(rng.Start), End: domain.Date(rng.End)}
	}
	if err := rng.Validate(); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return Request{Tickers: tickers, Benchmark: bench, Range: rng}, nil
}

// Key is the cache key of a normalized request: "SYM1,SYM2|BENCH|start|end"
func (r Request) Key() string {
	return strings.Join(r.Tickers, ",") + "|" + r.Benchmark + "|" + r.Range.String()
}

// Symbols returns the tickers followed by the benchmark, without duplicates
func (r Request) Symbols() []string {
	out := append([]string(nil), r.Tickers...)
	for _, t := range r.Tickers {
		if t == r.Benchmark {
			return out
		}
	}
	return append(out, r.Benchmark)
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Yahoo symbols use letters, digits and . - ^ =
func validateSymbol(sym string) error {
	for _, c := range sym {
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '-', c == '^', c == '=':
		default:
			return fmt.Errorf("%w: invalid symbol %q", ErrInvalidRequest, sym)
		}
	}
	return nil
}
