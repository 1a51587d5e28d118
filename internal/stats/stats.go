// Package stats maintains a player's running statistics and streaks.
package stats

import (
	"time"

	"daily-diagnosis-bot/internal/model"
)

// DayOf returns the calendar date of t, read in t's own location, as
// midnight UTC. Two instants on the same local day map to the same value.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// RecordGame folds one finished round into s.
//
// A win continues the streak when the previous game was played the day
// before playedOn, restarts it at 1 when the previous game was on any other
// day (or never), and leaves it unchanged when a game was already recorded
// on playedOn. A loss always resets the streak to 0.
func RecordGame(s *model.PlayerStats, won bool, guessCount, score int, playedOn time.Time) {
	s.GamesPlayed++

	if won {
		s.GamesWon++
		s.TotalScore += score

		switch {
		case s.LastPlayedDate != nil && SameDay(*s.LastPlayedDate, playedOn.AddDate(0, 0, -1)):
			s.CurrentStreak++
		case s.LastPlayedDate == nil || !SameDay(*s.LastPlayedDate, playedOn):
			s.CurrentStreak = 1
		}
		s.MaxStreak = max(s.MaxStreak, s.CurrentStreak)

		if guessCount >= 1 && guessCount <= model.DistributionSize {
			s.GuessDistribution[guessCount-1]++
		}
	} else {
		s.CurrentStreak = 0
	}

	day := DayOf(playedOn)
	s.LastPlayedDate = &day
}

// WinRate returns the share of games won in percent, rounded down.
func WinRate(s *model.PlayerStats) int {
	if s.GamesPlayed == 0 {
		return 0
	}
	return s.GamesWon * 100 / s.GamesPlayed
}

// AverageScore returns the mean score per won game, rounded down.
func AverageScore(s *model.PlayerStats) int {
	if s.GamesWon == 0 {
		return 0
	}
	return s.TotalScore / s.GamesWon
}
