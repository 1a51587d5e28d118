// Package httpapi serves a read-only JSON view of the game over HTTP:
// health, autocomplete, player stats and leaderboards.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"daily-diagnosis-bot/internal/model"
	"daily-diagnosis-bot/internal/service"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Suggester returns autocomplete candidates for a partial diagnosis.
type Suggester interface {
	Suggest(query string) []string
}

// StatsReader loads a player's statistics.
type StatsReader interface {
	Get(ctx context.Context, playerID int64) (*model.PlayerStats, error)
}

// Leaderboards serves the rankings.
type Leaderboards interface {
	TopByScore(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	TopByStreak(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// Dependencies holds what the routes read from.
type Dependencies struct {
	Health      HealthChecker
	Suggestions Suggester
	Stats       StatsReader
	Rankings    Leaderboards
}

// Server bundles the router and its dependencies.
type Server struct {
	r    *chi.Mux
	deps Dependencies
	srv  *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
func New(deps Dependencies) *Server {
	s := &Server{r: chi.NewRouter(), deps: deps}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)

	s.r.Get("/health", s.handleHealth)
	s.r.Get("/suggest", s.handleSuggest)
	s.r.Get("/players/{id}/stats", s.handlePlayerStats)
	s.r.Get("/leaderboard", s.handleLeaderboard)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Start serves HTTP on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("Starting HTTP API")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health.HealthCheck(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "database_unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type suggestRes struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

// handleSuggest answers GET /suggest?q=&limit=. The limit can only narrow
// the configured suggestion count.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, err := intParam(r, "limit", 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "bad_limit")
		return
	}

	terms := s.deps.Suggestions.Suggest(q)
	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, suggestRes{Query: q, Suggestions: terms})
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_player_id")
		return
	}

	ps, err := s.deps.Stats.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("player_id", id).Msg("Failed to load stats")
		writeError(w, http.StatusInternalServerError, "stats_failed")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

type leaderboardRes struct {
	By      string                   `json:"by"`
	Entries []model.LeaderboardEntry `json:"entries"`
}

// handleLeaderboard answers GET /leaderboard?by=score|streak&limit=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = "score"
	}
	limit, err := intParam(r, "limit", service.DefaultRankingLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_limit")
		return
	}

	var entries []model.LeaderboardEntry
	switch by {
	case "score":
		entries, err = s.deps.Rankings.TopByScore(r.Context(), limit)
	case "streak":
		entries, err = s.deps.Rankings.TopByStreak(r.Context(), limit)
	default:
		writeError(w, http.StatusBadRequest, "bad_ranking")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("by", by).Msg("Failed to load leaderboard")
		writeError(w, http.StatusInternalServerError, "leaderboard_failed")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, leaderboardRes{By: by, Entries: entries})
}
