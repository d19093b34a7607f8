package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"BistRadar/internal/engine"
	"BistRadar/internal/model"
	"BistRadar/internal/recorder"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSymbol serves GET /api/v1/symbols/{symbol}?mode=. mode defaults to top5.
func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	mode, ok := s.parseMode(w, r)
	if !ok {
		return
	}
	symbol := model.NormalizeSymbol(chi.URLParam(r, "symbol"), s.suffix)
	if symbol == "" {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no data"})
		return
	}

	ctx := engine.WithSource(r.Context(), model.SourceHTTP)
	report, err := s.analyzer.AnalyzeOne(ctx, symbol, mode)
	if err != nil {
		if model.IsAbsent(err) {
			s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no data"})
			return
		}
		s.log.Error().Err(err).Str("symbol", symbol).Msg("analyze symbol")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "analysis failed"})
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleUniverse serves GET /api/v1/universe?mode=. mode defaults to top5.
func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	mode, ok := s.parseMode(w, r)
	if !ok {
		return
	}
	ctx := engine.WithSource(r.Context(), model.SourceHTTP)
	report, err := s.analyzer.AnalyzeUniverse(ctx, mode)
	if err != nil {
		s.log.Error().Err(err).Str("mode", string(mode)).Msg("universe scan")
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "scan failed"})
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleScans serves GET /api/v1/scans?limit=, the most recent scan log entries.
func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	runs, err := s.recorder.RecentScans(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("read scan log")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "scan log unavailable"})
		return
	}
	if runs == nil {
		runs = []recorder.ScanRun{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) parseMode(w http.ResponseWriter, r *http.Request) (model.Mode, bool) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return model.ModeComposite, true
	}
	mode, err := model.ParseMode(raw)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return "", false
	}
	return mode, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("encode response")
	}
}
