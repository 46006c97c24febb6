package domain

import (
	"fmt"
	"sort"
	"time"
)

// PriceTable holds closing prices for several symbols on one shared,
// strictly increasing date index. It is immutable once built; accessors
// return copies.
type PriceTable struct {
	dates   []time.Time
	symbols []string
	closes  map[string][]float64
}

// AlignPrices inner-joins per-symbol price histories on their dates.
// Missing or non-positive closes are dropped before the join, and duplicate
// dates keep the last observation. Only dates present for every symbol
// survive. Symbols are kept in the order given.
func AlignPrices(symbols []string, history map[string][]PricePoint) *PriceTable {
	perSymbol := make(map[string]map[time.Time]float64, len(symbols))
	for _, sym := range symbols {
		byDate := make(map[time.Time]float64)
		for _, p := range history[sym] {
			if p.Close > 0 && !p.Date.IsZero() {
				byDate[Date(p.Date)] = p.Close
			}
		}
		perSymbol[sym] = byDate
	}

	var common []time.Time
	if len(symbols) > 0 {
		for d := range perSymbol[symbols[0]] {
			inAll := true
			for _, sym := range symbols[1:] {
				if _, ok := perSymbol[sym][d]; !ok {
					inAll = false
					break
				}
			}
			if inAll {
				common = append(common, d)
			}
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	closes := make(map[string][]float64, len(symbols))
	for _, sym := range symbols {
		col := make([]float64, len(common))
		for i, d := range common {
			col[i] = perSymbol[sym][d]
		}
		closes[sym] = col
	}

	return &PriceTable{
		dates:   common,
		symbols: append([]string(nil), symbols...),
		closes:  closes,
	}
}

// Len returns the number of aligned dates
func (t *PriceTable) Len() int {
	return len(t.dates)
}

// Dates returns a copy of the date index
func (t *PriceTable) Dates() []time.Time {
	return append([]time.Time(nil), t.dates...)
}

// Symbols returns a copy of the symbol list
func (t *PriceTable) Symbols() []string {
	return append([]string(nil), t.symbols...)
}

// Has reports whether the table carries the symbol
func (t *PriceTable) Has(symbol string) bool {
	_, ok := t.closes[symbol]
	return ok
}

// Column returns a copy of one symbol's closes
func (t *PriceTable) Column(symbol string) ([]float64, error) {
	col, ok := t.closes[symbol]
	if !ok {
		return nil, fmt.Errorf("symbol %s not in price table", symbol)
	}
	return append([]float64(nil), col...), nil
}

// Series returns one symbol's closes as a date-indexed series
func (t *PriceTable) Series(symbol string) (Series, error) {
	col, err := t.Column(symbol)
	if err != nil {
		return Series{}, err
	}
	return NewSeries(symbol, UnitPrice, t.dates, col), nil
}
