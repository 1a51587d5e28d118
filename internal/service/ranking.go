package service

import (
	"context"
	"time"

	"daily-diagnosis-bot/internal/model"
	"daily-diagnosis-bot/internal/stats"
)

// DefaultRankingLimit is the number of rows shown in a ranking.
const DefaultRankingLimit = 10

// DailyResultStore lists finished daily rounds.
type DailyResultStore interface {
	DailyResults(ctx context.Context, date time.Time, limit int) ([]model.DailyResult, error)
}

// RankingService handles ranking and leaderboard operations.
type RankingService struct {
	stats    StatsStore
	rounds   DailyResultStore
	timezone *time.Location
	now      Clock
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(statsStore StatsStore, rounds DailyResultStore, timezone *time.Location, now Clock) *RankingService {
	if timezone == nil {
		timezone = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &RankingService{
		stats:    statsStore,
		rounds:   rounds,
		timezone: timezone,
		now:      now,
	}
}

// TopByScore retrieves the players with the highest total score.
func (s *RankingService) TopByScore(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return s.stats.TopByScore(ctx, clampLimit(limit))
}

// TopByStreak retrieves the players with the longest best streak.
func (s *RankingService) TopByStreak(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return s.stats.TopByStreak(ctx, clampLimit(limit))
}

// Today retrieves the results of today's daily case.
func (s *RankingService) Today(ctx context.Context, limit int) ([]model.DailyResult, error) {
	return s.ForDate(ctx, stats.DayOf(s.now().In(s.timezone)), limit)
}

// ForDate retrieves the results of the daily case of a specific date.
func (s *RankingService) ForDate(ctx context.Context, date time.Time, limit int) ([]model.DailyResult, error) {
	return s.rounds.DailyResults(ctx, stats.DayOf(date), clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRankingLimit
	}
	return min(limit, 100)
}
