// Package api exposes the scan engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kaishiraishi/sightline/internal/config"
	"github.com/kaishiraishi/sightline/internal/geodesy"
	"github.com/kaishiraishi/sightline/internal/scan"
	"github.com/kaishiraishi/sightline/internal/store"
)

// HealthChecker reports whether the upstream profile service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server wires scan handlers onto a chi router.
type Server struct {
	scanner *scan.Scanner
	scanCfg config.ScanConfig
	cache   store.Store   // nil when caching is disabled
	health  HealthChecker // nil for offline providers
}

// NewServer builds a Server. cache and health may be nil.
func NewServer(scanner *scan.Scanner, scanCfg config.ScanConfig, cache store.Store, health HealthChecker) *Server {
	return &Server{scanner: scanner, scanCfg: scanCfg, cache: cache, health: health}
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/scan/single", s.handleSingle)
		r.Post("/scan/fan", s.handleFan)
		r.Post("/scan/sweep", s.handleSweep)
		r.Get("/cache/stats", s.handleCacheStats)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type singleRequest struct {
	Source        geodesy.Point `json:"source"`
	Target        geodesy.Point `json:"target"`
	SightAngleDeg float64       `json:"sight_angle_deg"`
}

type singleResponse struct {
	Result  scan.RayResult  `json:"result"`
	GeoJSON json.RawMessage `json:"geojson"`
}

func (s *Server) handleSingle(w http.ResponseWriter, r *http.Request) {
	var req singleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.scanner.Single(r.Context(), req.Source, req.Target, req.SightAngleDeg)
	if err != nil {
		writeScanError(w, r, err)
		return
	}

	wrapped := scan.WrapSingle(*result, geodesy.InitialBearing(req.Source, req.Target), req.Target)
	geo, err := scan.EncodeGeoJSON([]scan.FanRayResult{wrapped})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}

	writeJSON(w, http.StatusOK, singleResponse{Result: *result, GeoJSON: geo})
}

type fanRequest struct {
	Source        geodesy.Point `json:"source"`
	Target        geodesy.Point `json:"target"`
	DeltaThetaDeg float64       `json:"delta_theta_deg"`
	RayCount      int           `json:"ray_count"`
	SightAngleDeg float64       `json:"sight_angle_deg"`
}

type fanResponse struct {
	ScanID         string              `json:"scan_id"`
	Results        []scan.FanRayResult `json:"results"`
	Representative *scan.FanRayResult  `json:"representative,omitempty"`
	GeoJSON        json.RawMessage     `json:"geojson"`
}

func (s *Server) handleFan(w http.ResponseWriter, r *http.Request) {
	var req fanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DeltaThetaDeg == 0 {
		req.DeltaThetaDeg = s.scanCfg.FanDeltaThetaDeg
	}
	if req.RayCount == 0 {
		req.RayCount = s.scanCfg.FanRayCount
	}

	result, err := s.scanner.Fan(r.Context(), req.Source, req.Target, scan.FanConfig{
		DeltaThetaDeg: req.DeltaThetaDeg,
		RayCount:      req.RayCount,
	}, req.SightAngleDeg)
	if err != nil {
		writeScanError(w, r, err)
		return
	}

	geo, err := scan.EncodeGeoJSON(result.Results)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}

	writeJSON(w, http.StatusOK, fanResponse{
		ScanID:         result.ID,
		Results:        result.Results,
		Representative: result.Representative,
		GeoJSON:        geo,
	})
}

type sweepRequest struct {
	Source        geodesy.Point `json:"source"`
	RayCount      int           `json:"ray_count"`
	RangeM        float64       `json:"range_m"`
	SightAngleDeg float64       `json:"sight_angle_deg"`
}

type sweepResponse struct {
	Results []scan.FanRayResult `json:"results"`
	GeoJSON json.RawMessage     `json:"geojson"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RayCount == 0 {
		req.RayCount = s.scanCfg.SweepRayCount
	}
	if req.RangeM == 0 {
		req.RangeM = s.scanCfg.SweepRangeM
	}

	results, err := s.scanner.Sweep(r.Context(), req.Source, scan.FanConfig{
		RayCount:  req.RayCount,
		MaxRangeM: req.RangeM,
		FullScan:  true,
	}, req.SightAngleDeg)
	if err != nil {
		writeScanError(w, r, err)
		return
	}

	geo, err := scan.EncodeGeoJSON(results)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}

	writeJSON(w, http.StatusOK, sweepResponse{Results: results, GeoJSON: geo})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if s.health != nil {
		if err := s.health.Health(r.Context()); err != nil {
			status["status"] = "degraded"
			status["provider"] = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			status["provider"] = "ok"
		}
	}
	writeJSON(w, code, status)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusNotFound, "cache disabled")
		return
	}
	stats, err := s.cache.Stats(r.Context())
	if err != nil {
		zap.L().Error("cache stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cache stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeScanError maps scan failures to status codes. Geometry and config
// problems are the caller's fault; provider trouble is a bad gateway.
func writeScanError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Warn("scan failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	msg := err.Error()
	switch {
	case containsAny(msg, "coincide", "needs at least", "positive max range", "out of range"):
		writeError(w, http.StatusBadRequest, msg)
	case containsAny(msg, "canceled"):
		writeError(w, http.StatusRequestTimeout, msg)
	default:
		writeError(w, http.StatusBadGateway, msg)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
