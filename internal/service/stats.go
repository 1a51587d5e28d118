package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/model"
	"daily-diagnosis-bot/internal/pkg/lock"
	"daily-diagnosis-bot/internal/stats"
)

// StatsStore persists player statistics. Update must apply fn and write the
// result atomically.
type StatsStore interface {
	Get(ctx context.Context, playerID int64) (*model.PlayerStats, error)
	Update(ctx context.Context, playerID int64, fn func(*model.PlayerStats) error) (*model.PlayerStats, error)
	TopByScore(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	TopByStreak(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// StatsService records finished rounds into player statistics.
// Each player's stats have a single writer at a time.
type StatsService struct {
	store       StatsStore
	lock        *lock.PlayerLock
	lockTimeout time.Duration
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(store StatsStore, playerLock *lock.PlayerLock, lockTimeout time.Duration) *StatsService {
	if playerLock == nil {
		playerLock = lock.NewPlayerLock()
	}
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &StatsService{
		store:       store,
		lock:        playerLock,
		lockTimeout: lockTimeout,
	}
}

// Record folds a finished round into the player's stats as a game played on
// playedOn, the day the round finished. Rounds still in play are ignored and
// the current stats are returned.
func (s *StatsService) Record(ctx context.Context, round *game.Round, playedOn time.Time) (*model.PlayerStats, error) {
	if !round.Finished() {
		return s.Get(ctx, round.PlayerID)
	}

	var updated *model.PlayerStats
	err := s.lock.WithLockContext(ctx, round.PlayerID, s.lockTimeout, func() error {
		var err error
		updated, err = s.store.Update(ctx, round.PlayerID, func(ps *model.PlayerStats) error {
			stats.RecordGame(ps, round.State == model.StateWon, len(round.Guesses), round.Score, playedOn)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record game: %w", err)
	}

	log.Info().
		Int64("player_id", round.PlayerID).
		Str("round_id", round.ID).
		Str("state", string(round.State)).
		Int("score", round.Score).
		Int("streak", updated.CurrentStreak).
		Msg("Game recorded")

	return updated, nil
}

// Get retrieves a player's stats.
func (s *StatsService) Get(ctx context.Context, playerID int64) (*model.PlayerStats, error) {
	ps, err := s.store.Get(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return ps, nil
}
