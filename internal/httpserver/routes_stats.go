package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/X-Zero-L/aniguessr/internal/daily"
	"github.com/X-Zero-L/aniguessr/internal/results"
)

const maxLimit = 100

func (s *Server) mountStats(r chi.Router) {
	r.Route("/stats", func(r chi.Router) {
		r.Use(s.requireResults)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/daily", s.handleDaily)
		r.Get("/players/{player}", s.handlePlayer)
	})
}

func (s *Server) requireResults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Results == nil {
			writeError(w, http.StatusServiceUnavailable, "results store disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitParam reads ?limit=, defaulting to 20 and capping at maxLimit.
func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 20
	}
	return min(n, maxLimit)
}

type lbRes struct {
	Top []results.LBRow `json:"top"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Results.Leaderboard(r.Context(), limitParam(r))
	if err != nil {
		log.Error().Err(err).Msg("leaderboard query failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Top: rows})
}

type dailyRes struct {
	Date string               `json:"date"`
	Top  []results.DailyLBRow `json:"top"`
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	rows, err := s.deps.Results.DailyLeaderboard(r.Context(), date, limitParam(r))
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("daily leaderboard query failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, dailyRes{Date: date, Top: rows})
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "player")
	st, err := s.deps.Results.PlayerStats(r.Context(), player)
	if err != nil {
		log.Error().Err(err).Str("player", player).Msg("player stats query failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
