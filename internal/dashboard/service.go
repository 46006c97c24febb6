// Package dashboard holds per-viewer sessions and assembles the dashboard
// view: market risk report, enterprise risk cards and appetite gauges.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/riskboard/internal/domain"
	"github.com/aristath/riskboard/internal/risk"
	"github.com/aristath/riskboard/internal/signals"
	"github.com/rs/zerolog"
)

// View is everything the front end renders for one session
type View struct {
	SessionID   string                   `json:"session_id"`
	Selection   Selection                `json:"selection"`
	Weights     map[string]float64       `json:"weights"`
	Metrics     risk.Metrics             `json:"metrics"`
	Series      map[string]domain.Series `json:"series"`
	Warnings    []risk.Warning           `json:"warnings"`
	Signals     []signals.Category       `json:"signals"`
	Appetite    []signals.Gauge          `json:"appetite"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// SignalsView groups the non-market panels
type SignalsView struct {
	Categories []signals.Category `json:"categories"`
	Appetite   []signals.Gauge    `json:"appetite"`
}

// viewSeries are the charts of the main view
var viewSeries = []string{
	risk.SeriesCumulative,
	risk.SeriesRollingVolatility,
	risk.SeriesDrawdown,
	risk.SeriesPortfolioReturns,
}

// Service computes views for sessions
type Service struct {
	engine  *risk.Engine
	signals signals.RiskSignalProvider
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates the dashboard service
func NewService(engine *risk.Engine, provider signals.RiskSignalProvider, log zerolog.Logger) *Service {
	return &Service{
		engine:  engine,
		signals: provider,
		log:     log.With().Str("component", "dashboard").Logger(),
		now:     time.Now,
	}
}

// Report returns the session's risk report, memoized per price key
func (svc *Service) Report(ctx context.Context, s *Session) (*risk.Report, error) {
	s.mu.Lock()
	req := s.request
	key := req.Key()
	if s.report != nil && s.reportKey == key {
		report := s.report
		s.mu.Unlock()
		return report, nil
	}
	s.mu.Unlock()

	table, err := s.loader.Load(ctx, req)
	if err != nil {
		return nil, err
	}

	report, err := svc.engine.Analyze(table, req.Tickers, req.Benchmark)
	if err != nil {
		svc.log.Warn().Err(err).Str("session", s.ID).Str("key", key).Msg("Risk analysis failed")
		return nil, err
	}
	for _, w := range report.Warnings {
		svc.log.Warn().Str("session", s.ID).Str("metric", w.Metric).Str("reason", w.Reason).Msg("Metric degraded")
	}

	s.mu.Lock()
	// Keep the result only if the selection did not move meanwhile
	if s.request.Key() == key {
		s.reportKey = key
		s.report = report
	}
	s.mu.Unlock()

	return report, nil
}

// Dashboard assembles the full view. Signals are drawn fresh on every render.
func (svc *Service) Dashboard(ctx context.Context, s *Session) (*View, error) {
	report, err := svc.Report(ctx, s)
	if err != nil {
		return nil, err
	}

	sig, err := svc.Signals(ctx)
	if err != nil {
		return nil, err
	}

	series := make(map[string]domain.Series, len(viewSeries))
	for _, name := range viewSeries {
		if ser, ok := report.Series(name); ok {
			series[name] = ser
		}
	}

	return &View{
		SessionID:   s.ID,
		Selection:   s.Selection(),
		Weights:     report.Weights,
		Metrics:     report.Metrics,
		Series:      series,
		Warnings:    report.Warnings,
		Signals:     sig.Categories,
		Appetite:    sig.Appetite,
		GeneratedAt: svc.now().UTC(),
	}, nil
}

// Signals returns the enterprise risk cards and appetite gauges
func (svc *Service) Signals(ctx context.Context) (*SignalsView, error) {
	cats, err := svc.signals.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get risk categories: %w", err)
	}
	gauges, err := svc.signals.Appetite(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get risk appetite: %w", err)
	}
	return &SignalsView{Categories: cats, Appetite: gauges}, nil
}

// UpdateSelection validates sel and swaps it in, dropping the cached prices
// and report of the previous selection. Empty fields keep their current value.
func (svc *Service) UpdateSelection(s *Session, sel Selection) (Selection, error) {
	req, err := sel.Merge(s.Selection()).Request()
	if err != nil {
		return Selection{}, err
	}

	s.mu.Lock()
	oldKey := s.request.Key()
	s.request = req
	if oldKey != req.Key() {
		s.report = nil
		s.reportKey = ""
	}
	s.mu.Unlock()

	if oldKey != req.Key() {
		s.loader.Invalidate(oldKey)
		svc.log.Info().Str("session", s.ID).Str("old_key", oldKey).Str("key", req.Key()).Msg("Selection changed")
	}

	return selectionFromRequest(req), nil
}

// PriceSeries returns one symbol's aligned closes for the current selection.
// The price table is served from the session cache when the key is unchanged.
func (svc *Service) PriceSeries(ctx context.Context, s *Session, symbol string) (domain.Series, error) {
	table, err := s.loader.Load(ctx, s.Request())
	if err != nil {
		return domain.Series{}, err
	}
	sym := normalizeSymbol(symbol)
	if !table.Has(sym) {
		return domain.Series{}, fmt.Errorf("%w: %s", ErrSymbolNotSelected, sym)
	}
	return table.Series(sym)
}

// InvalidateCache drops every cached price table and report of the session
func (svc *Service) InvalidateCache(s *Session) {
	s.loader.Reset()
	s.mu.Lock()
	s.report = nil
	s.reportKey = ""
	s.mu.Unlock()
}
