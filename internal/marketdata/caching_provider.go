package marketdata

import (
	"context"
	"time"

	"github.com/aristath/riskboard/internal/clientdata"
	"github.com/aristath/riskboard/internal/domain"
	"github.com/rs/zerolog"
)

// CachingProvider is a read-through Provider backed by the persistent
// client data cache. Fresh entries skip the network; stale entries are
// served when the upstream call fails.
type CachingProvider struct {
	inner Provider
	repo  *clientdata.Repository
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachingProvider wraps inner with the repository. A zero ttl uses
// clientdata.TTLPriceHistory.
func NewCachingProvider(inner Provider, repo *clientdata.Repository, ttl time.Duration, log zerolog.Logger) *CachingProvider {
	if ttl <= 0 {
		ttl = clientdata.TTLPriceHistory
	}
	return &CachingProvider{
		inner: inner,
		repo:  repo,
		ttl:   ttl,
		log:   log.With().Str("component", "price_cache").Logger(),
	}
}

// FetchDailyCloses implements Provider
func (p *CachingProvider) FetchDailyCloses(ctx context.Context, symbol string, rng domain.DateRange) ([]domain.PricePoint, error) {
	key := symbol + "|" + rng.String()

	var points []domain.PricePoint
	found, err := p.repo.GetIfFresh(clientdata.TablePriceHistory, key, &points)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("Failed to read price cache")
	} else if found {
		return utcDates(points), nil
	}

	points, fetchErr := p.inner.FetchDailyCloses(ctx, symbol, rng)
	if fetchErr != nil {
		var stale []domain.PricePoint
		if ok, err := p.repo.Get(clientdata.TablePriceHistory, key, &stale); err == nil && ok && len(stale) > 0 {
			p.log.Warn().Err(fetchErr).Str("symbol", symbol).Msg("Serving stale cached prices")
			return utcDates(stale), nil
		}
		return nil, fetchErr
	}

	// Empty answers are not cached so a later listing can still succeed
	if len(points) > 0 {
		if err := p.repo.Store(clientdata.TablePriceHistory, key, points, p.ttl); err != nil {
			p.log.Warn().Err(err).Str("key", key).Msg("Failed to store price cache")
		}
	}

	return points, nil
}

// msgpack decodes timestamps in the local zone; dates are UTC midnights
func utcDates(points []domain.PricePoint) []domain.PricePoint {
	for i := range points {
		points[i].Date = points[i].Date.UTC()
	}
	return points
}
