// Package domain provides the core data model shared by the loader, the risk
// engine and the dashboard: date ranges, aligned price tables and
// date-indexed series.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in keys, config and JSON
const DateLayout = "2006-01-02"

// Units attached to series metadata
const (
	UnitRatio           = "ratio"
	UnitAnnualizedRatio = "annualized_ratio"
	UnitPrice           = "price"
)

// ErrInvalidRange is returned when a date range is empty or inverted
var ErrInvalidRange = errors.New("invalid date range")

// Date truncates t to a UTC calendar date
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// DateRange is a calendar date interval. End is exclusive when sent upstream.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange parses a range from two YYYY-MM-DD strings
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	r := DateRange{Start: s, End: e}
	return r, r.Validate()
}

// Validate checks that both ends are set and Start <= End
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidRange, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

// String renders the range as "start|end"
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + "|" + r.End.Format(DateLayout)
}

// PricePoint is one daily close
type PricePoint struct {
	Date  time.Time `json:"date" msgpack:"d"`
	Close float64   `json:"close" msgpack:"c"`
}

// Point is one observation of a date-indexed series
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is a date-indexed sequence of values plus display metadata
type Series struct {
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Points []Point `json:"points"`
}

// NewSeries zips dates and values into a series. The shorter slice wins.
func NewSeries(name, unit string, dates []time.Time, values []float64) Series {
	n := len(dates)
	if len(values) < n {
		n = len(values)
	}
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{Date: dates[i], Value: values[i]}
	}
	return Series{Name: name, Unit: unit, Points: points}
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s.Points)
}

// Values returns the observation values in date order
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Dates returns the observation dates in order
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}
