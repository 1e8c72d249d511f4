// Package api exposes the analysis pipeline over HTTP: JSON endpoints for
// the render feed, coverage trend and data-rate series, plus debug chart
// pages.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/hydroscan-data/coverage.report/internal/config"
	"github.com/hydroscan-data/coverage.report/internal/db"
	"github.com/hydroscan-data/coverage.report/internal/monitoring"
	"github.com/hydroscan-data/coverage.report/internal/swath"
	"github.com/hydroscan-data/coverage.report/internal/units"
)

type Server struct {
	loader *swath.Loader
	cfg    *config.AnalysisConfig
	store  *db.DB // nil disables persistence endpoints
}

func NewServer(loader *swath.Loader, cfg *config.AnalysisConfig, store *db.DB) *Server {
	return &Server{loader: loader, cfg: cfg, store: store}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf("[%d] %s %s %vms",
			lrw.statusCode, r.Method, r.RequestURI,
			float64(time.Since(start).Nanoseconds())/1e6)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/api/detections", s.listDetections)
	mux.HandleFunc("/api/trend", s.showTrend)
	mux.HandleFunc("/api/trend/export", s.exportTrend)
	mux.HandleFunc("/api/rates", s.listRates)
	mux.HandleFunc("/debug/charts/coverage", s.handleCoverageChart)
	mux.HandleFunc("/debug/charts/trend", s.handleTrendChart)
	mux.HandleFunc("/debug/charts/rates", s.handleRatesChart)
	mux.HandleFunc("/debug/coverage.png", s.handleCoveragePNG)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("encoding response failed: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// requestConfig builds the per-request analysis parameters: the server's
// base configuration with any query overrides applied.
func (s *Server) requestConfig(r *http.Request) (*config.AnalysisConfig, error) {
	cfg := *s.cfg
	q := r.URL.Query()
	if v := q.Get("frame"); v != "" {
		if !units.IsValidFrame(v) {
			return nil, fmt.Errorf("frame must be one of %s", units.GetValidFramesString())
		}
		cfg.ReferenceFrame = &v
	}
	if v := q.Get("max_points"); v != "" {
		mp, err := strconv.Atoi(v)
		if err != nil || mp < 0 {
			return nil, fmt.Errorf("invalid max_points %q", v)
		}
		cfg.MaxPoints = &mp
	}
	if v := q.Get("factor"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 1 {
			return nil, fmt.Errorf("invalid factor %q", v)
		}
		cfg.DecimationFactor = &f
	}
	if v := q.Get("bins"); v != "" {
		b, err := strconv.Atoi(v)
		if err != nil || b < 1 {
			return nil, fmt.Errorf("invalid bins %q", v)
		}
		cfg.TrendBinCount = &b
	}
	return &cfg, nil
}

// filteredSoundings runs the adjust/filter/decimate stages against the
// current table snapshot and returns the selected flattened soundings plus
// the pre-decimation count.
func (s *Server) filteredSoundings(cfg *config.AnalysisConfig) (swath.FlatSoundings, int) {
	tbl := swath.AdjustTable(s.loader.Table(), cfg.GetReferenceFrame())
	flat := tbl.Flatten()
	kept := flat.MaskedIndices(swath.Mask(tbl, cfg))
	filtered := flat.Select(kept)
	selected := swath.Decimate(filtered.Len(), cfg.GetMaxPoints(), cfg.GetDecimationFactor())
	return filtered.Select(selected), filtered.Len()
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	tbl := s.loader.Table()
	placeholders := 0
	archived := 0
	for _, rec := range tbl.Records() {
		if rec.Placeholder {
			placeholders++
		}
		if rec.Archive {
			archived++
		}
	}
	summary := map[string]any{
		"pings":        tbl.Len(),
		"files":        tbl.Files(),
		"placeholders": placeholders,
		"archived":     archived,
	}
	if s.store != nil {
		batches, err := s.store.Batches(20)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		summary["batches"] = batches
	}
	s.writeJSON(w, summary)
}

type detectionsResponse struct {
	Frame    string     `json:"frame"`
	Total    int        `json:"total"`
	Filtered int        `json:"filtered"`
	Returned int        `json:"returned"`
	Y        []*float64 `json:"y"`
	Z        []*float64 `json:"z"`
}

func (s *Server) listDetections(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	selected, filtered := s.filteredSoundings(cfg)
	resp := detectionsResponse{
		Frame:    cfg.GetReferenceFrame(),
		Total:    s.loader.Table().Len() * 2,
		Filtered: filtered,
		Returned: selected.Len(),
		Y:        jsonFloats(selected.Y),
		Z:        jsonFloats(selected.Z),
	}
	s.writeJSON(w, resp)
}

func (s *Server) trendBins(cfg *config.AnalysisConfig) []swath.TrendBin {
	selected, _ := s.filteredSoundings(cfg)
	return swath.ComputeTrend(selected.Z, selected.Y, cfg.GetTrendBinCount())
}

func (s *Server) showTrend(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, map[string]any{
		"frame": cfg.GetReferenceFrame(),
		"bins":  s.trendBins(cfg),
	})
}

func (s *Server) exportTrend(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=coverage_trend.txt")
	if err := swath.WriteTrendExport(w, s.trendBins(cfg)); err != nil {
		monitoring.Logf("trend export failed: %v", err)
	}
}

type rateSampleResponse struct {
	Timestamp float64  `json:"timestamp"`
	RateMBph  *float64 `json:"rate_mbph"`
	TotalMBph *float64 `json:"total_mbph"`
	IntervalS *float64 `json:"interval_s"`
	Role      string   `json:"role"`
}

func (s *Server) listRates(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.requestConfig(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	samples, err := swath.AnalyzeRates(s.loader.Table(), cfg)
	if err != nil {
		if errors.Is(err, swath.ErrNoValidTimingData) {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]rateSampleResponse, len(samples))
	for i, smp := range samples {
		resp[i] = rateSampleResponse{
			Timestamp: smp.Timestamp,
			RateMBph:  jsonFloat(smp.RateMBph),
			TotalMBph: jsonFloat(smp.TotalMBph),
			IntervalS: jsonFloat(smp.IntervalS),
			Role:      string(smp.Role),
		}
	}
	s.writeJSON(w, resp)
}

// jsonFloat maps NaN/Inf to JSON null; encoding/json rejects them as
// numbers.
func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func jsonFloats(v []float64) []*float64 {
	out := make([]*float64, len(v))
	for i := range v {
		out[i] = jsonFloat(v[i])
	}
	return out
}
