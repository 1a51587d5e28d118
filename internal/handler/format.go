package handler

import (
	"fmt"
	"strings"

	"daily-diagnosis-bot/internal/catalog"
	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/model"
	"daily-diagnosis-bot/internal/service"
	"daily-diagnosis-bot/internal/stats"
)

const divider = "━━━━━━━━━━━━━━━"

var medals = []string{"🥇", "🥈", "🥉"}

// displayName falls back to the numeric id when a player has no username.
func displayName(username string, id int64) string {
	if username == "" {
		return fmt.Sprintf("Player%d", id)
	}
	return username
}

func rankLabel(i int) string {
	if i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

// FormatResume returns the line shown above a resumed round, or "" for a new one.
func FormatResume(view *service.RoundView) string {
	switch {
	case view.Stale:
		return fmt.Sprintf("↩️ Continuing your daily case from %s. Finish it to play today's.\n", view.Round.PlayedOn.Format("2006-01-02"))
	case view.Resumed:
		return "↩️ Continuing your round\n"
	}
	return ""
}

// FormatRound renders the clues revealed so far and the guesses taken.
func FormatRound(view *service.RoundView) string {
	var b strings.Builder
	r := view.Round

	title := "🩺 Daily case"
	if r.Mode == model.ModeShuffle {
		title = "🎲 Practice case"
	}
	fmt.Fprintf(&b, "%s (%s)\n%s\n", title, view.Case.Category, divider)
	for i, clue := range view.Clues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, clue)
	}

	if len(r.Guesses) > 0 {
		b.WriteString(divider + "\n")
		for _, g := range r.Guesses {
			mark := "❌"
			if g.Correct {
				mark = "✅"
			}
			fmt.Fprintf(&b, "%s %s\n", mark, g.Raw)
		}
	}

	b.WriteString(divider + "\n")
	if r.Finished() {
		b.WriteString(FormatOutcome(view))
	} else {
		fmt.Fprintf(&b, "Guesses left: %d. Reply with a diagnosis or /clue.", r.RemainingGuesses())
	}
	return b.String()
}

// FormatOutcome renders the end of a finished round.
func FormatOutcome(view *service.RoundView) string {
	r := view.Round
	var b strings.Builder
	if r.State == model.StateWon {
		fmt.Fprintf(&b, "🎉 Correct! It was %s.\nScore: %d (%d guesses, %d clues)",
			view.Case.CanonicalName, r.Score, len(r.Guesses), r.CluesRevealed)
	} else {
		fmt.Fprintf(&b, "😢 Out of guesses. It was %s.", view.Case.CanonicalName)
	}
	if view.Stats != nil {
		fmt.Fprintf(&b, "\nStreak: %d (best %d)", view.Stats.CurrentStreak, view.Stats.MaxStreak)
	}
	return b.String()
}

// FormatStats renders a player's aggregate statistics with a distribution chart.
func FormatStats(name string, s *model.PlayerStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Stats for %s\n%s\n", name, divider)
	fmt.Fprintf(&b, "Played: %d\nWon: %d (%d%%)\n", s.GamesPlayed, s.GamesWon, stats.WinRate(s))
	fmt.Fprintf(&b, "Streak: %d (best %d)\n", s.CurrentStreak, s.MaxStreak)
	fmt.Fprintf(&b, "Total score: %d (avg %d)\n", s.TotalScore, stats.AverageScore(s))
	b.WriteString(divider + "\nGuess distribution\n")

	top := 0
	for _, n := range s.GuessDistribution {
		top = max(top, n)
	}
	for i, n := range s.GuessDistribution {
		bar := 0
		if top > 0 {
			bar = n * 10 / top
		}
		fmt.Fprintf(&b, "%d %s %d\n", i+1, strings.Repeat("▇", bar), n)
	}
	b.WriteString(divider)
	return b.String()
}

// FormatLeaderboard renders a ranking with medals for the first three places.
func FormatLeaderboard(title, unit string, entries []model.LeaderboardEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", title, divider)
	if len(entries) == 0 {
		b.WriteString("No data yet\n")
	}
	for i, e := range entries {
		fmt.Fprintf(&b, "%s %s: %d %s\n", rankLabel(i), displayName(e.Username, e.PlayerID), e.Value, unit)
	}
	b.WriteString(divider)
	return b.String()
}

// FormatDailyResults renders today's finished daily rounds.
func FormatDailyResults(date string, results []model.DailyResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Daily case %s\n%s\n", date, divider)
	if len(results) == 0 {
		b.WriteString("Nobody has finished today's case yet\n")
	}
	for i, r := range results {
		name := displayName(r.Username, r.PlayerID)
		if r.State == model.StateWon {
			fmt.Fprintf(&b, "%s %s: %d pts in %d/%d\n", rankLabel(i), name, r.Score, r.Guesses, game.MaxGuesses)
		} else {
			fmt.Fprintf(&b, "%s %s: X/%d\n", rankLabel(i), name, game.MaxGuesses)
		}
	}
	b.WriteString(divider)
	return b.String()
}

// FormatCaseInfo renders every field of a case for administrators.
func FormatCaseInfo(c model.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗂 %s\nDiagnosis: %s\n", c.ID, c.CanonicalName)
	if len(c.AlternativeNames) > 0 {
		fmt.Fprintf(&b, "Also: %s\n", strings.Join(c.AlternativeNames, ", "))
	}
	fmt.Fprintf(&b, "Category: %s\nDifficulty: %d\n", c.Category, c.Difficulty)
	for i, clue := range c.Clues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, clue)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatIssues renders catalog validation results.
func FormatIssues(total int, issues []catalog.Issue) string {
	if len(issues) == 0 {
		return fmt.Sprintf("✅ Catalog OK: %d cases, no issues", total)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ %d issues in %d cases\n", len(issues), total)
	for _, issue := range issues {
		b.WriteString("• " + issue.String() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHelp lists the commands the bot understands.
func FormatHelp(modes []game.Mode) string {
	var b strings.Builder
	b.WriteString("🩺 Daily Diagnosis\n")
	b.WriteString("Read the clues and name the diagnosis. Five guesses, each wrong guess reveals another clue.\n")
	b.WriteString(divider + "\n")
	for _, m := range modes {
		fmt.Fprintf(&b, "/%s - %s\n", commandFor(m.Command()), m.Description())
	}
	b.WriteString("/guess <diagnosis> - submit a guess\n")
	b.WriteString("/clue - reveal the next clue\n")
	b.WriteString("/suggest <text> - autocomplete a diagnosis\n")
	b.WriteString("/stats - your statistics\n")
	b.WriteString("/top - top players by score\n")
	b.WriteString("/streaks - longest streaks\n")
	b.WriteString("/today - today's daily results\n")
	b.WriteString("/categories - case categories")
	return b.String()
}

// commandFor maps a mode to the chat command that starts it.
func commandFor(mode string) string {
	if mode == model.ModeShuffle {
		return "play"
	}
	return mode
}
