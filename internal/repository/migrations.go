package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "players table",
		sql: `
			CREATE TABLE IF NOT EXISTS players (
				telegram_id BIGINT PRIMARY KEY,
				username VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		name: "player_stats table",
		sql: `
			CREATE TABLE IF NOT EXISTS player_stats (
				player_id BIGINT PRIMARY KEY REFERENCES players(telegram_id) ON DELETE CASCADE,
				games_played INT NOT NULL DEFAULT 0,
				games_won INT NOT NULL DEFAULT 0,
				current_streak INT NOT NULL DEFAULT 0,
				max_streak INT NOT NULL DEFAULT 0,
				total_score INT NOT NULL DEFAULT 0,
				guess_distribution INT[] NOT NULL DEFAULT '{0,0,0,0,0}',
				last_played_date DATE,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_player_stats_score ON player_stats(total_score DESC);
			CREATE INDEX IF NOT EXISTS idx_player_stats_streak ON player_stats(max_streak DESC);
		`,
	},
	{
		name: "rounds table",
		sql: `
			CREATE TABLE IF NOT EXISTS rounds (
				id UUID PRIMARY KEY,
				player_id BIGINT NOT NULL REFERENCES players(telegram_id) ON DELETE CASCADE,
				case_id VARCHAR(64) NOT NULL,
				mode VARCHAR(32) NOT NULL,
				played_on DATE NOT NULL,
				guesses JSONB NOT NULL DEFAULT '[]',
				clues_revealed INT NOT NULL DEFAULT 1,
				state VARCHAR(16) NOT NULL DEFAULT 'playing',
				score INT NOT NULL DEFAULT 0,
				started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				finished_at TIMESTAMPTZ
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_rounds_one_active
				ON rounds(player_id) WHERE state = 'playing';
			CREATE UNIQUE INDEX IF NOT EXISTS idx_rounds_one_daily
				ON rounds(player_id, played_on) WHERE mode = 'daily';
			CREATE INDEX IF NOT EXISTS idx_rounds_daily_results
				ON rounds(played_on, mode, state);
		`,
	},
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
