// Package marketdata loads aligned daily price history for a set of tickers
// and a benchmark, memoizing loads per request key.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aristath/riskboard/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultFetchConcurrency bounds parallel provider calls within one load
	DefaultFetchConcurrency = 4
	// DefaultFetchTimeout bounds one shared load independent of its callers
	DefaultFetchTimeout = 2 * time.Minute
)

// Provider fetches daily closes for one symbol. An empty slice with a nil
// error means the provider has no data for the symbol in the range.
type Provider interface {
	FetchDailyCloses(ctx context.Context, symbol string, rng domain.DateRange) ([]domain.PricePoint, error)
}

// Loader memoizes aligned price tables by request key. One Loader belongs to
// one dashboard session; nothing is shared across loaders.
type Loader struct {
	provider     Provider
	log          zerolog.Logger
	concurrency  int
	fetchTimeout time.Duration

	mu    sync.RWMutex
	memo  map[string]*domain.PriceTable
	group singleflight.Group
}

// NewLoader creates a loader over the given provider
func NewLoader(provider Provider, log zerolog.Logger) *Loader {
	return &Loader{
		provider:     provider,
		log:          log.With().Str("component", "price_loader").Logger(),
		concurrency:  DefaultFetchConcurrency,
		fetchTimeout: DefaultFetchTimeout,
		memo:         make(map[string]*domain.PriceTable),
	}
}

// Load returns the aligned table for the request, fetching only on a cache miss.
// Concurrent loads of the same key share one fetch.
func (l *Loader) Load(ctx context.Context, req Request) (*domain.PriceTable, error) {
	norm, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	key := norm.Key()

	if table, ok := l.cached(key); ok {
		l.log.Debug().Str("key", key).Msg("Price cache hit")
		return table, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The shared fetch outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := l.group.DoChan(key, func() (interface{}, error) {
		// A concurrent caller may have filled the memo before we got here
		if table, ok := l.cached(key); ok {
			return table, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
		defer cancel()

		table, err := l.fetch(fetchCtx, norm)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.memo[key] = table
		l.mu.Unlock()
		return table, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		l.log.Debug().Str("key", key).Msg("Joined in-flight price load")
	}

	return res.Val.(*domain.PriceTable), nil
}

func (l *Loader) cached(key string) (*domain.PriceTable, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	table, ok := l.memo[key]
	return table, ok
}

func (l *Loader) fetch(ctx context.Context, req Request) (*domain.PriceTable, error) {
	symbols := req.Symbols()
	history := make(map[string][]domain.PricePoint, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			points, err := l.provider.FetchDailyCloses(gctx, sym, req.Range)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", sym, err)
			}
			mu.Lock()
			history[sym] = points
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		l.log.Warn().Err(err).Strs("symbols", symbols).Msg("Price fetch failed")
		return nil, &DataUnavailableError{Symbols: symbols, Err: err}
	}

	var missing []string
	for _, sym := range symbols {
		if len(history[sym]) == 0 {
			missing = append(missing, sym)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		l.log.Warn().Strs("symbols", missing).Msg("Provider returned no prices")
		return nil, &DataUnavailableError{Symbols: missing, Reason: "empty history"}
	}

	table := domain.AlignPrices(symbols, history)
	if table.Len() == 0 {
		return nil, &DataUnavailableError{Symbols: symbols, Reason: "no common trading dates"}
	}

	l.log.Info().
		Int("symbols", len(symbols)).
		Int("rows", table.Len()).
		Str("range", req.Range.String()).
		Msg("Loaded price history")

	return table, nil
}

// Invalidate drops one memoized key
func (l *Loader) Invalidate(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.memo, key)
}

// Reset drops every memoized key
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.memo = make(map[string]*domain.PriceTable)
}

// Keys returns the memoized keys in sorted order
func (l *Loader) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.memo))
	for k := range l.memo {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
