// internal/httpserver/server.go
//
// Operator-facing HTTP surface: diagnostics, Prometheus metrics and read-only
// result statistics. Gameplay itself is not exposed here.
//
// Routes:
//   - GET /                     service banner
//   - GET /health               liveness plus catalog/session counts
//   - GET /metrics              Prometheus exposition (when a gatherer is set)
//   - GET /debug/catalog        catalog summary
//   - GET /stats/leaderboard    overall leaderboard (?limit=)
//   - GET /stats/daily          daily leaderboard (?date=YYYY-MM-DD, default today)
//   - GET /stats/players/{id}   one player's totals
//
// Notes:
//   - Responses are JSON; errors are {"error": "..."}.
//   - Stats routes answer 503 when no results store is configured.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
	"github.com/X-Zero-L/aniguessr/internal/results"
	"github.com/X-Zero-L/aniguessr/internal/store"
)

// Deps are the collaborators the server reports on. Any of them may be nil.
type Deps struct {
	Catalog  *catalog.Holder
	Sessions *store.Sessions
	Results  *results.Store
	Gatherer prometheus.Gatherer
}

// Server bundles the router and its dependencies.
type Server struct {
	r    *chi.Mux
	deps Deps
	now  func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(deps Deps) *Server {
	s := &Server{r: chi.NewRouter(), deps: deps, now: time.Now}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))

	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "aniguessr",
			"endpoints": []string{"/health", "/metrics", "/debug/catalog", "/stats/*"},
		})
	})
	s.r.Get("/health", s.handleHealth)
	if deps.Gatherer != nil {
		s.r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	s.r.Get("/debug/catalog", s.handleCatalog)
	s.mountStats(s.r)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("diagnostics server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthRes struct {
	OK       bool `json:"ok"`
	Catalog  int  `json:"catalog"`
	Sessions int  `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	res := healthRes{OK: true}
	if s.deps.Catalog != nil {
		if c := s.deps.Catalog.Load(); c != nil {
			res.Catalog = c.Len()
		}
	}
	if s.deps.Sessions != nil {
		res.Sessions = s.deps.Sessions.Len()
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if s.deps.Catalog == nil || s.deps.Catalog.Load() == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Catalog.Load().Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
