package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-diagnosis-bot/internal/catalog"
	"daily-diagnosis-bot/internal/game"
	"daily-diagnosis-bot/internal/game/daily"
	"daily-diagnosis-bot/internal/game/shuffle"
	"daily-diagnosis-bot/internal/matcher"
	"daily-diagnosis-bot/internal/model"
	"daily-diagnosis-bot/internal/pkg/lock"
)

func testCatalog() []model.Case {
	clues := func(p string) []string {
		return []string{p + "1", p + "2", p + "3", p + "4", p + "5"}
	}
	return []model.Case{
		{ID: "mi", CanonicalName: "Myocardial Infarction", AlternativeNames: []string{"Heart Attack", "MI"}, Clues: clues("mi"), Category: "Cardiology", Difficulty: 2},
		{ID: "pe", CanonicalName: "Pulmonary Embolism", AlternativeNames: []string{"PE"}, Clues: clues("pe"), Category: "Pulmonology", Difficulty: 3},
		{ID: "dka", CanonicalName: "Diabetic Ketoacidosis", AlternativeNames: []string{"DKA"}, Clues: clues("dka"), Category: "Endocrinology", Difficulty: 2},
	}
}

type harness struct {
	svc    *GameService
	rounds *memRounds
	stats  *memStats
	now    time.Time
	ids    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		rounds: newMemRounds(),
		stats:  newMemStats(),
		now:    time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC),
	}
	repo := catalog.New(testCatalog())
	modes, err := game.NewRegistry(daily.New(repo), shuffle.New(repo))
	require.NoError(t, err)

	statsSvc := NewStatsService(h.stats, lock.NewPlayerLock(), time.Second)
	h.svc = NewGameService(h.rounds, statsSvc, repo, modes, matcher.LexiconFromCases(repo.AllCases()), lock.NewPlayerLock(), GameConfig{
		SuggestionLimit: 2,
		LockTimeout:     time.Second,
		Clock:           func() time.Time { return h.now },
		NewID: func() string {
			h.ids++
			return fmt.Sprintf("round-%d", h.ids)
		},
	})
	return h
}

func (h *harness) dailyCase() model.Case {
	c, _ := daily.Case(h.svc.Today(), testCatalog())
	return c
}

func wrongGuessFor(c model.Case, i int) string {
	return fmt.Sprintf("not %s %d", c.ID, i)
}

func TestGameService_StartDailyAndResume(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	view, err := h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err)
	assert.False(t, view.Resumed)
	assert.Equal(t, h.dailyCase().ID, view.Case.ID)
	assert.Equal(t, []string{view.Case.Clues[0]}, view.Clues)
	assert.Equal(t, "round-1", view.Round.ID)
	assert.Equal(t, h.now, view.Round.StartedAt)

	again, err := h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Equal(t, view.Round.ID, again.Round.ID)

	_, err = h.svc.Start(ctx, 1, model.ModeShuffle, "")
	assert.ErrorIs(t, err, ErrRoundInProgress)
}

func TestGameService_StaleDailyRoundIsResumedAndMarked(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err)
	started := first.Round.PlayedOn

	h.now = h.now.Add(24 * time.Hour)
	view, err := h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err)
	assert.True(t, view.Resumed)
	assert.True(t, view.Stale)
	assert.Equal(t, first.Round.ID, view.Round.ID)
	assert.Equal(t, started, view.Round.PlayedOn)

	_, err = h.svc.Guess(ctx, 1, view.Case.CanonicalName)
	require.NoError(t, err)

	today, err := h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err, "today's case is open once the earlier one is finished")
	assert.False(t, today.Resumed)
	assert.False(t, today.Stale)
	assert.Equal(t, h.svc.Today(), today.Round.PlayedOn)
}

func TestGameService_GuessFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Guess(ctx, 1, "anything")
	assert.ErrorIs(t, err, ErrNoActiveRound)

	view, err := h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err)
	c := view.Case

	_, err = h.svc.Guess(ctx, 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyGuess)

	res, err := h.svc.Guess(ctx, 1, wrongGuessFor(c, 0))
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Len(t, res.Clues, 2)
	assert.Nil(t, res.Stats)

	_, err = h.svc.Guess(ctx, 1, "  "+wrongGuessFor(c, 0)+" ")
	assert.ErrorIs(t, err, ErrDuplicateGuess)

	active, err := h.svc.ActiveRound(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, active.Round.Guesses, 1, "duplicate guess must not use an attempt")

	res, err = h.svc.Guess(ctx, 1, c.AlternativeNames[0])
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, model.StateWon, res.Round.State)
	assert.Equal(t, game.Score(2, 2), res.Round.Score)
	require.NotNil(t, res.Round.FinishedAt)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 1, res.Stats.GamesWon)
	assert.Equal(t, 1, res.Stats.CurrentStreak)
	assert.Equal(t, [5]int{0, 1, 0, 0, 0}, res.Stats.GuessDistribution)

	_, err = h.svc.ActiveRound(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = h.svc.Start(ctx, 1, model.ModeDaily, "")
	assert.ErrorIs(t, err, ErrDailyAlreadyPlayed)

	h.now = h.now.Add(24 * time.Hour)
	view, err = h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err)
	res, err = h.svc.Guess(ctx, 1, view.Case.CanonicalName)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.CurrentStreak)
	assert.Equal(t, 400, res.Round.Score)
}

func TestGameService_LoseAfterFiveWrongGuesses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	view, err := h.svc.Start(ctx, 1, model.ModeShuffle, "")
	require.NoError(t, err)

	var res *GuessResult
	for i := 0; i < game.MaxGuesses; i++ {
		res, err = h.svc.Guess(ctx, 1, wrongGuessFor(view.Case, i))
		require.NoError(t, err)
	}
	assert.Equal(t, model.StateLost, res.Round.State)
	assert.Equal(t, 0, res.Round.Score)
	assert.Len(t, res.Clues, game.MaxClues)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 1, res.Stats.GamesPlayed)
	assert.Equal(t, 0, res.Stats.GamesWon)

	_, err = h.svc.Guess(ctx, 1, "one more")
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestGameService_RevealClue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _, err := h.svc.RevealClue(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = h.svc.Start(ctx, 1, model.ModeShuffle, "Pulmonology")
	require.NoError(t, err)

	for i := 2; i <= game.MaxClues; i++ {
		view, revealed, err := h.svc.RevealClue(ctx, 1)
		require.NoError(t, err)
		assert.True(t, revealed)
		assert.Len(t, view.Clues, i)
	}
	view, revealed, err := h.svc.RevealClue(ctx, 1)
	require.NoError(t, err)
	assert.False(t, revealed)
	assert.Equal(t, "pe", view.Case.ID)

	res, err := h.svc.Guess(ctx, 1, "pe")
	require.NoError(t, err)
	assert.Equal(t, game.Score(1, 5), res.Round.Score)
}

func TestGameService_ShuffleAvoidsPlayedCases(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < len(testCatalog()); i++ {
		view, err := h.svc.Start(ctx, 1, model.ModeShuffle, "")
		require.NoError(t, err)
		assert.False(t, seen[view.Case.ID], "case %s served twice", view.Case.ID)
		seen[view.Case.ID] = true
		_, err = h.svc.Guess(ctx, 1, view.Case.CanonicalName)
		require.NoError(t, err)
	}

	view, err := h.svc.Start(ctx, 1, model.ModeShuffle, "")
	require.NoError(t, err, "a fully played catalog starts over")
	assert.True(t, seen[view.Case.ID])
}

func TestGameService_StartErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Start(ctx, 1, "blitz", "")
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = h.svc.Start(ctx, 1, model.ModeShuffle, "Dermatology")
	assert.ErrorIs(t, err, shuffle.ErrUnknownCategory)
}

func TestGameService_TodayUsesTimezone(t *testing.T) {
	h := newHarness(t)
	h.svc.tz = time.FixedZone("UTC+2", 2*60*60)
	h.now = time.Date(2026, 3, 15, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), h.svc.Today())
}

func TestGameService_Suggest(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{"Myocardial Infarction", "Pulmonary Embolism"}, h.svc.Suggest("i"))
	assert.Empty(t, h.svc.Suggest(" "))
}

func TestGameService_ConcurrentGuesses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	view, err := h.svc.Start(ctx, 1, model.ModeShuffle, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = h.svc.Guess(ctx, 1, wrongGuessFor(view.Case, i%8))
		}(i)
	}
	wg.Wait()

	ps, err := h.stats.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ps.GamesPlayed, "a round is recorded once")

	played, err := h.rounds.PlayedCaseIDs(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, played, view.Case.ID)

	r, err := h.rounds.find(func(r game.Round) bool { return r.ID == view.Round.ID })
	require.NoError(t, err)
	assert.Len(t, r.Guesses, game.MaxGuesses)
	seen := map[string]bool{}
	for _, g := range r.Guesses {
		assert.False(t, seen[g.Normalized], "duplicate guess %q stored", g.Normalized)
		seen[g.Normalized] = true
	}
}

func TestGameService_FailedStatsWriteKeepsRoundPlayable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	view, err := h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err)

	h.stats.failWith = errors.New("connection reset")
	_, err = h.svc.Guess(ctx, 1, view.Case.CanonicalName)
	require.ErrorContains(t, err, "connection reset")

	active, err := h.svc.ActiveRound(ctx, 1)
	require.NoError(t, err, "the round must still be in play")
	assert.Equal(t, model.StatePlaying, active.Round.State)
	assert.Empty(t, active.Round.Guesses)
	assert.Nil(t, active.Round.FinishedAt)

	ps, err := h.stats.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, ps.GamesPlayed)

	h.stats.failWith = nil
	res, err := h.svc.Guess(ctx, 1, view.Case.CanonicalName)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 400, res.Round.Score)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 1, res.Stats.GamesPlayed)
	assert.Equal(t, 1, res.Stats.GamesWon)

	_, err = h.svc.ActiveRound(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestGameService_StatsUseFinishDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	view, err := h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err)
	res, err := h.svc.Guess(ctx, 1, view.Case.CanonicalName)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.CurrentStreak)

	// A practice round started five days later is left open overnight.
	h.now = h.now.AddDate(0, 0, 5)
	view, err = h.svc.Start(ctx, 1, model.ModeShuffle, "")
	require.NoError(t, err)
	startDay := h.svc.Today()
	assert.Equal(t, startDay, view.Round.PlayedOn)

	h.now = h.now.AddDate(0, 0, 1)
	res, err = h.svc.Guess(ctx, 1, view.Case.CanonicalName)
	require.NoError(t, err)
	require.NotNil(t, res.Stats.LastPlayedDate)
	assert.Equal(t, h.svc.Today(), *res.Stats.LastPlayedDate)
	assert.Equal(t, startDay, res.Round.PlayedOn)
	assert.Equal(t, 1, res.Stats.CurrentStreak)

	view, err = h.svc.Start(ctx, 1, model.ModeDaily, "")
	require.NoError(t, err)
	res, err = h.svc.Guess(ctx, 1, view.Case.CanonicalName)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.CurrentStreak, "two wins on one day after a gap are not a streak")
}

func TestGameService_Busy(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.svc.Busy(1))

	h.svc.lock.Lock(1)
	assert.True(t, h.svc.Busy(1))
	assert.False(t, h.svc.Busy(2))

	h.svc.lock.Unlock(1)
	assert.False(t, h.svc.Busy(1))
}
