// Package api exposes the search entry points and health checks over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"repairer-search/internal/common/config"
	"repairer-search/internal/common/logger"
	"repairer-search/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readyTimeout = 2 * time.Second

// Searcher is the search surface served by the API.
type Searcher interface {
	Search(ctx context.Context, query string, opts models.SearchOptions) *models.AISearchResult
	QuickSearch(ctx context.Context, term, city string, opts models.MatchOptions) []models.MatchedRepairer
	SearchNearby(ctx context.Context, lat, lng, radiusKm float64, filters models.NearbyFilters) []models.MatchedRepairer
	GetSuggestions(partialQuery string) []string
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	router   *chi.Mux
	srv      *http.Server
	searcher Searcher
	checks   map[string]HealthCheck
	logger   logger.Logger
}

func NewServer(cfg config.HTTPConfig, searcher Searcher, checks map[string]HealthCheck, log logger.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		searcher: searcher,
		checks:   checks,
		logger:   log.WithFields(map[string]interface{}{"component": "http"}),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/search/quick", s.handleQuickSearch)
		r.Get("/search/nearby", s.handleSearchNearby)
		r.Get("/suggestions", s.handleSuggestions)
	})

	s.srv = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Run() error {
	s.logger.Info("http listening", map[string]interface{}{"address": s.srv.Addr})
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failures := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"failures": failures})
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not ready", "failures": failures})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"requestId":  middleware.GetReqID(r.Context()),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
