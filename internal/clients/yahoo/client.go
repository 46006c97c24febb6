// Package yahoo fetches daily price history from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/riskboard/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public Yahoo Finance query host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Config holds client configuration
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration // first retry wait, doubled per attempt
}

// Client is a Yahoo Finance chart API client
type Client struct {
	client      *http.Client
	baseURL     string
	maxRetries  int
	backoffBase time.Duration
	log         zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Second
	}

	return &Client{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		log:         log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse mirrors the parts of /v8/finance/chart we read.
// Closes are pointers because Yahoo returns null for halted sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// statusError marks a non-200 response; 4xx responses are not retried
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("Yahoo Finance API returned status %d: %s", e.code, e.body)
}

// FetchDailyCloses returns daily closing prices for symbol in [rng.Start, rng.End).
// An unknown symbol or an empty window yields an empty slice, not an error.
func (c *Client) FetchDailyCloses(ctx context.Context, symbol string, rng domain.DateRange) ([]domain.PricePoint, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("period1", strconv.FormatInt(rng.Start.Unix(), 10))
	params.Add("period2", strconv.FormatInt(rng.End.Unix(), 10))
	params.Add("interval", "1d")
	params.Add("events", "history")

	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	body, err := c.getWithRetry(ctx, reqURL, symbol)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			c.log.Warn().Str("symbol", symbol).Msg("Symbol not found")
			return []domain.PricePoint{}, nil
		}
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		if result.Chart.Error.Code == "Not Found" {
			return []domain.PricePoint{}, nil
		}
		return nil, fmt.Errorf("Yahoo Finance API error: %s: %s",
			result.Chart.Error.Code, result.Chart.Error.Description)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []domain.PricePoint{}, nil
	}

	chart := result.Chart.Result[0]
	closes := chart.Indicators.Quote[0].Close
	// Split and dividend adjusted closes win when Yahoo sends a full series
	if adj := chart.Indicators.AdjClose; len(adj) > 0 && len(adj[0].AdjClose) == len(closes) {
		closes = adj[0].AdjClose
	}

	prices := make([]domain.PricePoint, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		// Shift to exchange local time before truncating so the bar lands on its trading date
		date := domain.Date(time.Unix(ts+chart.Meta.GMTOffset, 0).UTC())
		prices = append(prices, domain.PricePoint{Date: date, Close: *closes[i]})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("range", rng.String()).
		Int("count", len(prices)).
		Msg("Fetched historical prices")

	return prices, nil
}

// getWithRetry performs a GET with exponential backoff on transport errors and 5xx/429
func (c *Client) getWithRetry(ctx context.Context, reqURL, symbol string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		body, err := c.get(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.code < 500 && se.code != http.StatusTooManyRequests {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt < c.maxRetries-1 {
			wait := c.backoffBase * time.Duration(1<<uint(attempt))
			c.log.Warn().
				Err(err).
				Str("symbol", symbol).
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("Historical price request failed, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(body), 200)}
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
