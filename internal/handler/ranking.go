package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"daily-diagnosis-bot/internal/service"
)

// RankingHandler handles leaderboard commands.
type RankingHandler struct {
	rankings *service.RankingService
	games    *service.GameService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankings *service.RankingService, games *service.GameService) *RankingHandler {
	return &RankingHandler{
		rankings: rankings,
		games:    games,
	}
}

// HandleTop handles the /top command.
func (h *RankingHandler) HandleTop(c tele.Context) error {
	entries, err := h.rankings.TopByScore(context.Background(), service.DefaultRankingLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load score leaderboard")
		return c.Reply("❌ Could not load the leaderboard, please try again later")
	}
	return c.Reply(FormatLeaderboard("🏆 Top players", "pts", entries))
}

// HandleStreaks handles the /streaks command.
func (h *RankingHandler) HandleStreaks(c tele.Context) error {
	entries, err := h.rankings.TopByStreak(context.Background(), service.DefaultRankingLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load streak leaderboard")
		return c.Reply("❌ Could not load the leaderboard, please try again later")
	}
	return c.Reply(FormatLeaderboard("🔥 Longest streaks", "days", entries))
}

// HandleToday handles the /today command.
func (h *RankingHandler) HandleToday(c tele.Context) error {
	results, err := h.rankings.Today(context.Background(), service.DefaultRankingLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load daily results")
		return c.Reply("❌ Could not load today's results, please try again later")
	}
	return c.Reply(FormatDailyResults(h.games.Today().Format("2006-01-02"), results))
}
