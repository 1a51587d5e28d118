package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"daily-diagnosis-bot/internal/model"
)

// StatsRepository handles player statistics persistence.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository instance.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

const statsColumns = `player_id, games_played, games_won, current_streak, max_streak,
	total_score, guess_distribution, last_played_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStats(row rowScanner) (*model.PlayerStats, error) {
	var (
		s    model.PlayerStats
		dist []int32
		last *time.Time
	)
	if err := row.Scan(
		&s.PlayerID,
		&s.GamesPlayed,
		&s.GamesWon,
		&s.CurrentStreak,
		&s.MaxStreak,
		&s.TotalScore,
		&dist,
		&last,
	); err != nil {
		return nil, err
	}
	for i := 0; i < len(dist) && i < model.DistributionSize; i++ {
		s.GuessDistribution[i] = int(dist[i])
	}
	s.LastPlayedDate = last
	return &s, nil
}

// Get retrieves the stats of a player. A player with no finished round gets
// zero stats, not an error.
func (r *StatsRepository) Get(ctx context.Context, playerID int64) (*model.PlayerStats, error) {
	query := `SELECT ` + statsColumns + ` FROM player_stats WHERE player_id = $1`

	s, err := scanStats(r.pool.QueryRow(ctx, query, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.PlayerStats{PlayerID: playerID}, nil
		}
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return s, nil
}

// Update applies fn to the player's stats inside one transaction, holding a
// row lock from read to write. The stats row is created on first use.
func (r *StatsRepository) Update(ctx context.Context, playerID int64, fn func(*model.PlayerStats) error) (*model.PlayerStats, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const ensure = `
		INSERT INTO player_stats (player_id)
		VALUES ($1)
		ON CONFLICT (player_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, ensure, playerID); err != nil {
		return nil, fmt.Errorf("failed to create stats row: %w", err)
	}

	s, err := scanStats(tx.QueryRow(ctx,
		`SELECT `+statsColumns+` FROM player_stats WHERE player_id = $1 FOR UPDATE`, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock stats: %w", err)
	}

	if err := fn(s); err != nil {
		return nil, err
	}

	dist := make([]int32, model.DistributionSize)
	for i, v := range s.GuessDistribution {
		dist[i] = int32(v)
	}

	const update = `
		UPDATE player_stats
		SET games_played = $2, games_won = $3, current_streak = $4, max_streak = $5,
			total_score = $6, guess_distribution = $7, last_played_date = $8, updated_at = NOW()
		WHERE player_id = $1
	`
	if _, err := tx.Exec(ctx, update,
		playerID,
		s.GamesPlayed,
		s.GamesWon,
		s.CurrentStreak,
		s.MaxStreak,
		s.TotalScore,
		dist,
		s.LastPlayedDate,
	); err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stats: %w", err)
	}
	return s, nil
}

// TopByScore returns the players with the highest total score.
func (r *StatsRepository) TopByScore(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	const query = `
		SELECT s.player_id, p.username, s.total_score
		FROM player_stats s
		JOIN players p ON p.telegram_id = s.player_id
		WHERE s.games_played > 0
		ORDER BY s.total_score DESC, s.player_id
		LIMIT $1
	`
	return r.leaderboard(ctx, query, limit)
}

// TopByStreak returns the players with the longest best streak.
func (r *StatsRepository) TopByStreak(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	const query = `
		SELECT s.player_id, p.username, s.max_streak
		FROM player_stats s
		JOIN players p ON p.telegram_id = s.player_id
		WHERE s.max_streak > 0
		ORDER BY s.max_streak DESC, s.current_streak DESC, s.player_id
		LIMIT $1
	`
	return r.leaderboard(ctx, query, limit)
}

func (r *StatsRepository) leaderboard(ctx context.Context, query string, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return entries, nil
}
