package game

// Scoring constants. The first clue is free.
const (
	BaseScore    = 500
	GuessPenalty = 100
	CluePenalty  = 50
)

// Score returns the points for a win after guessCount guesses with
// cluesRevealed clues shown. It never goes below zero.
func Score(guessCount, cluesRevealed int) int {
	extraClues := max(0, cluesRevealed-1)
	return max(0, BaseScore-GuessPenalty*guessCount-CluePenalty*extraClues)
}
