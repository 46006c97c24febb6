package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aristath/riskboard/internal/archive"
	"github.com/aristath/riskboard/internal/dashboard"
	"github.com/aristath/riskboard/internal/domain"
	"github.com/aristath/riskboard/internal/risk"
	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"
)

var errSeriesNotFound = errors.New("series not found")

// seriesRow is one CSV line of a series export
type seriesRow struct {
	Date  string  `csv:"date"`
	Value float64 `csv:"value"`
}

// decodeSelection reads an optional selection body; an empty body is the zero selection
func decodeSelection(r *http.Request) (dashboard.Selection, error) {
	var sel dashboard.Selection
	if r.Body == nil {
		return sel, nil
	}
	err := json.NewDecoder(r.Body).Decode(&sel)
	if errors.Is(err, io.EOF) {
		return dashboard.Selection{}, nil
	}
	if err != nil {
		return dashboard.Selection{}, fmt.Errorf("%w: invalid selection body: %v", errBadRequest, err)
	}
	return sel, nil
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

// handleCreateSession handles POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sel, err := decodeSelection(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.sessions.Create(sel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusCreated, sess.Info())
}

// handleGetSession handles GET /api/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeData(w, http.StatusOK, sess.Info())
}

// handleDeleteSession handles DELETE /api/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateSelection handles PUT /api/sessions/{id}/selection
func (s *Server) handleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sel, err := decodeSelection(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.dashboard.UpdateSelection(sess, sel); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, sess.Info())
}

// handleDashboard handles GET /api/sessions/{id}/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	view, err := s.dashboard.Dashboard(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, view)
}

// handleRiskMetrics handles GET /api/sessions/{id}/risk/metrics
func (s *Server) handleRiskMetrics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	report, err := s.dashboard.Report(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, report)
}

// handleRiskSeries handles GET /api/sessions/{id}/risk/series/{name}
func (s *Server) handleRiskSeries(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	report, err := s.dashboard.Report(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := chi.URLParam(r, "name")
	series, found := report.Series(name)
	if !found {
		s.writeError(w, r, fmt.Errorf("%w: %s (have %s)",
			errSeriesNotFound, name, strings.Join(risk.SeriesNames(), ", ")))
		return
	}

	s.writeSeries(w, r, sess.ID, series)
}

// handlePriceSeries handles GET /api/sessions/{id}/prices/{symbol}
func (s *Server) handlePriceSeries(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	series, err := s.dashboard.PriceSeries(r.Context(), sess, chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeSeries(w, r, sess.ID, series)
}

// writeSeries writes JSON, or CSV when ?format=csv
func (s *Server) writeSeries(w http.ResponseWriter, r *http.Request, sessionID string, series domain.Series) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		s.writeData(w, http.StatusOK, series)
	case "csv":
		rows := make([]seriesRow, len(series.Points))
		for i, p := range series.Points {
			rows[i] = seriesRow{Date: p.Date.Format(domain.DateLayout), Value: p.Value}
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%s.csv", series.Name, sessionID)))
		w.WriteHeader(http.StatusOK)
		if err := gocsv.Marshal(rows, w); err != nil {
			s.log.Error().Err(err).Str("series", series.Name).Msg("Failed to encode CSV response")
		}
	default:
		s.writeError(w, r, fmt.Errorf("%w: unsupported format %q", errBadRequest, format))
	}
}

// handleSignals handles GET /api/sessions/{id}/signals
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session(w, r); !ok {
		return
	}

	view, err := s.dashboard.Signals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, view)
}

// handleArchive handles POST /api/sessions/{id}/archive
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if s.archive == nil || !s.archive.Enabled() {
		s.writeError(w, r, archive.ErrArchiveDisabled)
		return
	}

	view, err := s.dashboard.Dashboard(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	receipt, err := s.archive.Publish(r.Context(), sess.ID, view)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusCreated, receipt)
}

// handleInvalidateCache handles POST /api/sessions/{id}/cache/invalidate
func (s *Server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	dropped := sess.CachedKeys()
	s.dashboard.InvalidateCache(sess)

	s.writeData(w, http.StatusOK, map[string]interface{}{
		"invalidated": dropped,
	})
}
