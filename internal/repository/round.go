package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/model"
)

const uniqueViolation = "23505"

// RoundRepository handles round persistence. Guesses are stored as a JSONB array.
type RoundRepository struct {
	pool *pgxpool.Pool
}

// NewRoundRepository creates a new RoundRepository instance.
func NewRoundRepository(pool *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{pool: pool}
}

const roundColumns = `id, player_id, case_id, mode, played_on, guesses, clues_revealed,
	state, score, started_at, finished_at`

func scanRound(row rowScanner) (*game.Round, error) {
	var (
		r       game.Round
		guesses []byte
		state   string
	)
	if err := row.Scan(
		&r.ID,
		&r.PlayerID,
		&r.CaseID,
		&r.Mode,
		&r.PlayedOn,
		&guesses,
		&r.CluesRevealed,
		&state,
		&r.Score,
		&r.StartedAt,
		&r.FinishedAt,
	); err != nil {
		return nil, err
	}
	r.State = model.RoundState(state)
	if err := json.Unmarshal(guesses, &r.Guesses); err != nil {
		return nil, fmt.Errorf("failed to decode guesses: %w", err)
	}
	if r.Guesses == nil {
		r.Guesses = []model.Guess{}
	}
	return &r, nil
}

func encodeGuesses(guesses []model.Guess) ([]byte, error) {
	if guesses == nil {
		guesses = []model.Guess{}
	}
	data, err := json.Marshal(guesses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode guesses: %w", err)
	}
	return data, nil
}

// Create inserts a new round. It returns ErrRoundConflict when the player
// already has a round in progress or a daily round for the same date.
func (r *RoundRepository) Create(ctx context.Context, round *game.Round) error {
	const query = `
		INSERT INTO rounds (id, player_id, case_id, mode, played_on, guesses, clues_revealed,
			state, score, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	guesses, err := encodeGuesses(round.Guesses)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		round.ID,
		round.PlayerID,
		round.CaseID,
		round.Mode,
		round.PlayedOn,
		guesses,
		round.CluesRevealed,
		string(round.State),
		round.Score,
		round.StartedAt,
		round.FinishedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrRoundConflict
		}
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// Save writes the mutable part of a round back.
func (r *RoundRepository) Save(ctx context.Context, round *game.Round) error {
	const query = `
		UPDATE rounds
		SET guesses = $2, clues_revealed = $3, state = $4, score = $5, finished_at = $6
		WHERE id = $1
	`

	guesses, err := encodeGuesses(round.Guesses)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, query,
		round.ID,
		guesses,
		round.CluesRevealed,
		string(round.State),
		round.Score,
		round.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save round: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRoundNotFound
	}
	return nil
}

// GetActive retrieves the round the player is currently playing.
func (r *RoundRepository) GetActive(ctx context.Context, playerID int64) (*game.Round, error) {
	return r.getOne(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE player_id = $1 AND state = 'playing'`,
		playerID)
}

// GetDaily retrieves the player's daily round for the given date.
func (r *RoundRepository) GetDaily(ctx context.Context, playerID int64, date time.Time) (*game.Round, error) {
	return r.getOne(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE player_id = $1 AND mode = 'daily' AND played_on = $2`,
		playerID, date)
}

func (r *RoundRepository) getOne(ctx context.Context, query string, args ...any) (*game.Round, error) {
	round, err := scanRound(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

// PlayedCaseIDs returns the ids of every case the player has finished.
func (r *RoundRepository) PlayedCaseIDs(ctx context.Context, playerID int64) (map[string]struct{}, error) {
	const query = `
		SELECT DISTINCT case_id
		FROM rounds
		WHERE player_id = $1 AND state <> 'playing'
	`

	rows, err := r.pool.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get played cases: %w", err)
	}
	defer rows.Close()

	played := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan case id: %w", err)
		}
		played[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating played cases: %w", err)
	}

	return played, nil
}

// DailyResults returns the finished daily rounds of a date, winners first by
// score, then by fewer guesses and earlier finish.
func (r *RoundRepository) DailyResults(ctx context.Context, date time.Time, limit int) ([]model.DailyResult, error) {
	const query = `
		SELECT r.player_id, p.username, r.state, jsonb_array_length(r.guesses), r.score
		FROM rounds r
		JOIN players p ON p.telegram_id = r.player_id
		WHERE r.mode = 'daily' AND r.played_on = $1 AND r.state <> 'playing'
		ORDER BY (r.state = 'won') DESC, r.score DESC, jsonb_array_length(r.guesses), r.finished_at
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily results: %w", err)
	}
	defer rows.Close()

	var results []model.DailyResult
	for rows.Next() {
		var (
			res   model.DailyResult
			state string
		)
		if err := rows.Scan(&res.PlayerID, &res.Username, &state, &res.Guesses, &res.Score); err != nil {
			return nil, fmt.Errorf("failed to scan daily result: %w", err)
		}
		res.State = model.RoundState(state)
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily results: %w", err)
	}

	return results, nil
}
