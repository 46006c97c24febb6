package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewDateRange(t *testing.T) {
	r, err := NewDateRange("2023-01-01", "2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01|2025-04-01", r.String())

	_, err = NewDateRange("2025-04-01", "2023-01-01")
	assert.True(t, errors.Is(err, ErrInvalidRange))

	_, err = NewDateRange("yesterday", "2023-01-01")
	assert.Error(t, err)

	same, err := NewDateRange("2024-01-02", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, same.Start, same.End)
}

func TestDateRange_ValidateZero(t *testing.T) {
	err := DateRange{}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestDate_TruncatesToUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	in := time.Date(2024, 3, 5, 9, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Date(in))
}

func TestNewSeries(t *testing.T) {
	dates := []time.Time{day("2024-01-02"), day("2024-01-03"), day("2024-01-04")}
	s := NewSeries("drawdown", UnitRatio, dates, []float64{0, -0.1})

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []float64{0, -0.1}, s.Values())
	assert.Equal(t, dates[:2], s.Dates())
}

func TestAlignPrices_InnerJoin(t *testing.T) {
	history := map[string][]PricePoint{
		"AAA": {
			{Date: day("2024-01-03"), Close: 11},
			{Date: day("2024-01-02"), Close: 10},
			{Date: day("2024-01-04"), Close: 12},
		},
		"BBB": {
			{Date: day("2024-01-02"), Close: 20},
			{Date: day("2024-01-04"), Close: 22},
			{Date: day("2024-01-05"), Close: 23},
		},
	}

	table := AlignPrices([]string{"AAA", "BBB"}, history)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, []time.Time{day("2024-01-02"), day("2024-01-04")}, table.Dates())

	aaa, err := table.Column("AAA")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 12}, aaa)

	bbb, err := table.Column("BBB")
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 22}, bbb)
}

func TestAlignPrices_DropsInvalidCloses(t *testing.T) {
	history := map[string][]PricePoint{
		"AAA": {
			{Date: day("2024-01-02"), Close: 10},
			{Date: day("2024-01-03"), Close: 0},
			{Date: day("2024-01-04"), Close: -1},
			{Date: day("2024-01-05"), Close: 13},
		},
	}

	table := AlignPrices([]string{"AAA"}, history)
	assert.Equal(t, []time.Time{day("2024-01-02"), day("2024-01-05")}, table.Dates())
}

func TestAlignPrices_MissingSymbolYieldsEmptyTable(t *testing.T) {
	history := map[string][]PricePoint{
		"AAA": {{Date: day("2024-01-02"), Close: 10}},
	}

	table := AlignPrices([]string{"AAA", "ZZZ"}, history)
	assert.Equal(t, 0, table.Len())
	assert.True(t, table.Has("ZZZ"))
}

func TestPriceTable_AccessorsReturnCopies(t *testing.T) {
	history := map[string][]PricePoint{
		"AAA": {{Date: day("2024-01-02"), Close: 10}, {Date: day("2024-01-03"), Close: 11}},
	}
	table := AlignPrices([]string{"AAA"}, history)

	col, err := table.Column("AAA")
	require.NoError(t, err)
	col[0] = 999

	again, err := table.Column("AAA")
	require.NoError(t, err)
	assert.Equal(t, 10.0, again[0])

	_, err = table.Column("MISSING")
	assert.Error(t, err)

	s, err := table.Series("AAA")
	require.NoError(t, err)
	assert.Equal(t, UnitPrice, s.Unit)
	assert.Equal(t, "AAA", s.Name)
}
