package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/riskboard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "gmtoffset": -18000},
      "timestamp": [1704205800, 1704292200, 1704378600, 1704465000],
      "indicators": {
        "quote": [{"close": [185.64, null, 181.91, 0]}],
        "adjclose": [{"adjclose": [184.9, null, 181.2, 0]}]
      }
    }],
    "error": null
  }
}`

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func testRange(t *testing.T) domain.DateRange {
	r, err := domain.NewDateRange("2024-01-01", "2024-01-06")
	require.NoError(t, err)
	return r
}

func TestFetchDailyCloses(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BackoffBase: time.Millisecond}, testLogger())

	prices, err := c.FetchDailyCloses(context.Background(), "AAPL", testRange(t))
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "period1=1704067200")
	assert.Contains(t, gotQuery, "period2=1704499200")

	// adjusted closes are used; null and zero closes are skipped
	require.Len(t, prices, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), prices[0].Date)
	assert.Equal(t, 184.9, prices[0].Close)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), prices[1].Date)
	assert.Equal(t, 181.2, prices[1].Close)
}

func TestFetchDailyCloses_RawCloseWithoutAdjusted(t *testing.T) {
	cases := map[string]string{
		"missing": `{"chart":{"result":[{"meta":{"gmtoffset":0},"timestamp":[1704240000,1704326400],
			"indicators":{"quote":[{"close":[10.5,11]}]}}],"error":null}}`,
		"short": `{"chart":{"result":[{"meta":{"gmtoffset":0},"timestamp":[1704240000,1704326400],
			"indicators":{"quote":[{"close":[10.5,11]}],"adjclose":[{"adjclose":[9.9]}]}}],"error":null}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, BackoffBase: time.Millisecond}, testLogger())
			prices, err := c.FetchDailyCloses(context.Background(), "KO", testRange(t))
			require.NoError(t, err)
			require.Len(t, prices, 2)
			assert.Equal(t, 10.5, prices[0].Close)
			assert.Equal(t, 11.0, prices[1].Close)
		})
	}
}

func TestFetchDailyCloses_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BackoffBase: time.Millisecond}, testLogger())

	prices, err := c.FetchDailyCloses(context.Background(), "NOPE", testRange(t))
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestFetchDailyCloses_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, testLogger())

	prices, err := c.FetchDailyCloses(context.Background(), "AAPL", testRange(t))
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestFetchDailyCloses_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 3, BackoffBase: time.Millisecond}, testLogger())

	prices, err := c.FetchDailyCloses(context.Background(), "AAPL", testRange(t))
	require.NoError(t, err)
	assert.Len(t, prices, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchDailyCloses_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 3, BackoffBase: time.Millisecond}, testLogger())

	_, err := c.FetchDailyCloses(context.Background(), "AAPL", testRange(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchDailyCloses_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 2, BackoffBase: time.Millisecond}, testLogger())

	_, err := c.FetchDailyCloses(context.Background(), "AAPL", testRange(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchDailyCloses_InvalidRange(t *testing.T) {
	c := NewClient(Config{}, testLogger())
	_, err := c.FetchDailyCloses(context.Background(), "AAPL", domain.DateRange{})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}
