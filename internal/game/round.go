package game

import (
	"time"

	"daily-diagnosis-bot/internal/matcher"
	"daily-diagnosis-bot/internal/model"
)

// Round limits.
const (
	MaxGuesses = 5
	MaxClues   = 5
)

// Round is one attempt of a player at one case.
//
// State is Playing exactly while fewer than MaxGuesses guesses were made and
// none was correct. Once terminal, SubmitGuess and RevealNextClue do nothing.
type Round struct {
	ID            string
	PlayerID      int64
	CaseID        string
	Mode          string
	PlayedOn      time.Time
	Guesses       []model.Guess
	CluesRevealed int
	State         model.RoundState
	Score         int
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// NewRound starts a round with the first clue visible.
func NewRound(id string, playerID int64, caseID, mode string, playedOn time.Time) *Round {
	return &Round{
		ID:            id,
		PlayerID:      playerID,
		CaseID:        caseID,
		Mode:          mode,
		PlayedOn:      playedOn,
		Guesses:       make([]model.Guess, 0, MaxGuesses),
		CluesRevealed: 1,
		State:         model.StatePlaying,
	}
}

// SubmitGuess records a guess whose correctness was decided by the caller.
// It reports whether the guess was accepted.
func (r *Round) SubmitGuess(text string, correct bool) bool {
	if r.State != model.StatePlaying {
		return false
	}

	r.Guesses = append(r.Guesses, model.Guess{
		Raw:        text,
		Normalized: matcher.Normalize(text),
		Correct:    correct,
		Index:      len(r.Guesses),
	})

	switch {
	case correct:
		r.State = model.StateWon
		r.Score = Score(len(r.Guesses), r.CluesRevealed)
	case len(r.Guesses) >= MaxGuesses:
		r.State = model.StateLost
		r.Score = 0
	case r.CluesRevealed < MaxClues:
		r.CluesRevealed++
	}
	return true
}

// RevealNextClue shows one more clue. It reports whether a clue was revealed.
func (r *Round) RevealNextClue() bool {
	if r.State != model.StatePlaying || r.CluesRevealed >= MaxClues {
		return false
	}
	r.CluesRevealed++
	return true
}

// HasGuessed reports whether text, once normalized, was already guessed.
func (r *Round) HasGuessed(text string) bool {
	n := matcher.Normalize(text)
	for _, g := range r.Guesses {
		if g.Normalized == n {
			return true
		}
	}
	return false
}

// RemainingGuesses returns how many guesses are left.
func (r *Round) RemainingGuesses() int {
	if r.State.Terminal() {
		return 0
	}
	return MaxGuesses - len(r.Guesses)
}

// Finished reports whether the round reached Won or Lost.
func (r *Round) Finished() bool {
	return r.State.Terminal()
}

// CurrentClues returns the clues of c visible in round.
func CurrentClues(round *Round, c model.Case) []string {
	n := min(round.CluesRevealed, len(c.Clues))
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	copy(out, c.Clues[:n])
	return out
}
