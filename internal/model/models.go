// Package model defines the data models for the daily diagnosis bot.
package model

import "time"

// Case is a single diagnosis puzzle. Cases are loaded once and never mutated.
type Case struct {
	ID               string   `json:"id"`
	CanonicalName    string   `json:"diagnosis"`
	AlternativeNames []string `json:"alternativeNames"`
	Clues            []string `json:"hints"`
	Category         string   `json:"category"`
	Difficulty       int      `json:"difficulty"`
}

// Guess is one submitted attempt inside a round.
type Guess struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
	Correct    bool   `json:"correct"`
	Index      int    `json:"index"`
}

// RoundState is the lifecycle state of a round.
type RoundState string

// Round states.
const (
	StatePlaying RoundState = "playing"
	StateWon     RoundState = "won"
	StateLost    RoundState = "lost"
)

// Terminal reports whether no further guesses or reveals are accepted.
func (s RoundState) Terminal() bool {
	return s == StateWon || s == StateLost
}

// Round modes.
const (
	ModeDaily   = "daily"
	ModeShuffle = "shuffle"
)

// Player represents a Telegram user that has played at least once.
type Player struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// DistributionSize is the number of guess-count buckets tracked for wins.
const DistributionSize = 5

// PlayerStats is the running aggregate of all completed rounds of a player.
// GuessDistribution[k] counts wins that took k+1 guesses; its sum equals GamesWon.
type PlayerStats struct {
	PlayerID          int64                 `db:"player_id" json:"playerId"`
	GamesPlayed       int                   `db:"games_played" json:"gamesPlayed"`
	GamesWon          int                   `db:"games_won" json:"gamesWon"`
	CurrentStreak     int                   `db:"current_streak" json:"currentStreak"`
	MaxStreak         int                   `db:"max_streak" json:"maxStreak"`
	TotalScore        int                   `db:"total_score" json:"totalScore"`
	GuessDistribution [DistributionSize]int `db:"guess_distribution" json:"guessDistribution"`
	LastPlayedDate    *time.Time            `db:"last_played_date" json:"lastPlayedDate,omitempty"`
}

// LeaderboardEntry is one row of a ranking.
type LeaderboardEntry struct {
	PlayerID int64  `db:"player_id" json:"playerId"`
	Username string `db:"username" json:"username"`
	Value    int    `db:"value" json:"value"`
}

// DailyResult summarizes a finished daily round for the per-date ranking.
type DailyResult struct {
	PlayerID int64      `db:"player_id" json:"playerId"`
	Username string     `db:"username" json:"username"`
	State    RoundState `db:"state" json:"state"`
	Guesses  int        `db:"guesses" json:"guesses"`
	Score    int        `db:"score" json:"score"`
}
